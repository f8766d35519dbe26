package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// Authenticator checks HTTP basic credentials against a single user.
type Authenticator struct {
	user string
	hash string
}

// HashPassword creates an Argon2id hash in PHC string form:
// $argon2id$v=19$m=65536,t=1,p=4$salt$hash
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrSaltGen, err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks password against a PHC-encoded Argon2id hash.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errors.New(config.ErrHashFormat)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrHashFormat, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrHashFormat, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrHashFormat, err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// ParseAuthLine reads a "username:hash" line.
func ParseAuthLine(line string) (*Authenticator, error) {
	user, hash, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok || user == "" || !strings.HasPrefix(hash, "$argon2id$") {
		return nil, errors.New(config.ErrAuthFileFormat)
	}
	return &Authenticator{user: user, hash: hash}, nil
}

// LoadAuthenticator reads the auth file. A missing file disables
// authentication and returns (nil, nil).
func LoadAuthenticator(path string) (*Authenticator, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn(config.MsgAuthDisabled,
			config.LogKeyComponent, config.CompAuth,
			config.LogKeyFile, path,
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrAuthFileRead, err)
	}
	return ParseAuthLine(string(data))
}

// WriteAuthFile hashes password and stores "username:hash" at path (0600).
func WriteAuthFile(path, user, password string, overwrite bool) error {
	if user == "" || password == "" {
		return errors.New(config.ErrPasswordEmpty)
	}
	if strings.Contains(user, ":") {
		return errors.New(config.ErrAuthFileFormat)
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.New(config.ErrAuthFileExists)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), config.DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	if err := os.WriteFile(path, []byte(user+":"+hash+"\n"), config.FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", config.ErrAuthFileWrite, err)
	}

	slog.Info(config.MsgAuthFileWritten,
		config.LogKeyComponent, config.CompAuth,
		config.LogKeyFile, path,
		config.LogKeyUser, user,
	)
	return nil
}

// Check reports whether the credentials match.
func (a *Authenticator) Check(user, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	if !userMatch {
		return false
	}
	ok, err := VerifyPassword(password, a.hash)
	if err != nil {
		slog.Error(config.ErrHashFormat,
			config.LogKeyComponent, config.CompAuth,
			config.LogKeyError, err,
		)
		return false
	}
	return ok
}

// Middleware enforces basic auth. A nil Authenticator lets every request through.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !a.Check(user, pass) {
			slog.Warn(config.MsgAuthFailed,
				config.LogKeyComponent, config.CompAuth,
				config.LogKeyUser, user,
				config.LogKeyPath, r.URL.Path,
			)
			w.Header().Set(config.HeaderAuthenticate, config.AuthRealm)
			writeError(w, http.StatusUnauthorized, config.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
