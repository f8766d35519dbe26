package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/zalando/go-keyring"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.ConfigFileName)

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultListen, s.Listen)
	assert.Equal(t, config.LeapDayMarch1, s.LeapDay)

	info, err := os.Stat(path)
	require.NoError(t, err, "Defaults must be persisted on first run")
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	content := "listen: 0.0.0.0:9000\nhorizon_days: -3\nleap_day: sometimes\nsmtp:\n  host: mail.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), config.FilePermUserRW))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", s.Listen)
	assert.Equal(t, config.DefaultHorizonDays, s.HorizonDays, "Invalid horizon falls back to default")
	assert.Equal(t, config.LeapDayMarch1, s.LeapDay, "Unknown leap policy falls back to march1")
	assert.Equal(t, "mail.example.com", s.SMTP.Host)
	assert.Equal(t, config.DefaultSMTPPort, s.SMTP.Port)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), config.FilePermUserRW))

	_, err := config.Load(path)
	assert.ErrorContains(t, err, config.ErrSettingsParse)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FR_LISTEN", "127.0.0.1:1234")
	t.Setenv("FR_HORIZON_DAYS", "14")
	t.Setenv("FR_NOTIFIER", config.NotifierSNS)
	t.Setenv("FR_TELEGRAM_CHAT_ID", "42")

	s, err := config.Load(filepath.Join(t.TempDir(), config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1234", s.Listen)
	assert.Equal(t, 14, s.HorizonDays)
	assert.Equal(t, 14*24*time.Hour, s.Horizon())
	assert.Equal(t, config.NotifierSNS, s.Notifier)
	assert.Equal(t, int64(42), s.Telegram.ChatID)
}

func TestSettings_Location(t *testing.T) {
	s := config.DefaultSettings()
	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	s.Timezone = "Europe/Paris"
	loc, err = s.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	s.Timezone = "Mars/Olympus_Mons"
	_, err = s.Location()
	assert.ErrorContains(t, err, config.ErrTimezone)
}

func TestSettings_ResolvePaths(t *testing.T) {
	s := config.DefaultSettings()
	s.ResolvePaths("/etc/fr/config.yaml")
	assert.Equal(t, filepath.Join("/etc/fr", config.DatabaseName), s.DatabasePath)
	assert.Equal(t, filepath.Join("/etc/fr", config.AuthFileName), s.AuthFile)

	s.DatabasePath = "/data/custom.db"
	s.ResolvePaths("/etc/fr/config.yaml")
	assert.Equal(t, "/data/custom.db", s.DatabasePath, "Explicit paths are kept")
}

func TestSettings_ResolveSecrets(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(config.KeyringService, config.KeyringUserSMTP, "from-keyring"))

	s := config.DefaultSettings()
	s.CardDAV.Password = "explicit"
	s.ResolveSecrets()

	assert.Equal(t, "from-keyring", s.SMTP.Password)
	assert.Equal(t, "explicit", s.CardDAV.Password, "Configured secrets take precedence")
	assert.Empty(t, s.Telegram.Token, "Missing secrets stay empty")
}
