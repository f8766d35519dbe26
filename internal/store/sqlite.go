package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a contact id does not exist.
var ErrNotFound = errors.New(config.ErrNotFound)

// Store persists contacts in SQLite.
type Store struct {
	db *sql.DB
}

// ImportStats reports the outcome of Import.
type ImportStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			reminder_days INTEGER NOT NULL,
			last_conversation TEXT DEFAULT '',
			next_reminder TEXT DEFAULT '',
			birthday TEXT DEFAULT '',
			birthday_reminder INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_next_reminder ON contacts(next_reminder)`,
		// Fields added with vCard import
		`ALTER TABLE contacts ADD COLUMN email TEXT DEFAULT ''`,
		`ALTER TABLE contacts ADD COLUMN notes TEXT DEFAULT ''`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

const contactColumns = `id, name, reminder_days, last_conversation, next_reminder, birthday, birthday_reminder, email, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (engine.Contact, error) {
	var c engine.Contact
	err := row.Scan(&c.ID, &c.Name, &c.ReminderDays, &c.LastConversation, &c.NextReminder,
		&c.Birthday, &c.BirthdayReminder, &c.Email, &c.Notes)
	return c, err
}

// List returns every contact ordered by name.
func (s *Store) List(ctx context.Context) ([]engine.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	defer func() { _ = rows.Close() }()

	contacts := []engine.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return contacts, nil
}

// Get returns the contact with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (engine.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Contact{}, ErrNotFound
	}
	if err != nil {
		return engine.Contact{}, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return c, nil
}

// Create inserts c with a freshly generated id and returns the stored copy.
func (s *Store) Create(ctx context.Context, c engine.Contact) (engine.Contact, error) {
	return insertContact(ctx, s.db, c)
}

// Update replaces every field of the stored contact c.ID.
func (s *Store) Update(ctx context.Context, c engine.Contact) (engine.Contact, error) {
	if err := updateContact(ctx, s.db, c); err != nil {
		return engine.Contact{}, err
	}
	return c, nil
}

// Delete removes a contact, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByName returns the first contact whose name matches case-insensitively.
func (s *Store) FindByName(ctx context.Context, name string) (engine.Contact, error) {
	// SQLite NOCASE only folds ASCII, so compare in Go
	contacts, err := s.List(ctx)
	if err != nil {
		return engine.Contact{}, err
	}
	for _, c := range contacts {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return engine.Contact{}, ErrNotFound
}

// Import merges contacts by case-insensitive name inside one transaction.
// Existing contacts get their birthday, e-mail and notes refreshed but keep
// their reminder interval and conversation history. A batch holding any
// contact that fails engine.Validate is rejected as a whole.
func (s *Store) Import(ctx context.Context, incoming []engine.Contact) (ImportStats, error) {
	var stats ImportStats

	for _, in := range incoming {
		if err := engine.Validate(in); err != nil {
			return stats, fmt.Errorf("%q: %w", in.Name, err)
		}
	}

	existing, err := s.List(ctx)
	if err != nil {
		return stats, err
	}
	byName := make(map[string]engine.Contact, len(existing))
	for _, c := range existing {
		key := strings.ToLower(c.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = c
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, in := range incoming {
		key := strings.ToLower(in.Name)
		current, ok := byName[key]
		if !ok {
			created, err := insertContact(ctx, tx, in)
			if err != nil {
				return stats, err
			}
			byName[key] = created
			stats.Created++
			continue
		}

		merged := mergeImported(current, in)
		if err := updateContact(ctx, tx, merged); err != nil {
			return stats, err
		}
		byName[key] = merged
		stats.Updated++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyCreated, stats.Created,
		config.LogKeyUpdated, stats.Updated)
	return stats, nil
}

func mergeImported(current, in engine.Contact) engine.Contact {
	if in.Birthday != "" {
		current.Birthday = in.Birthday
		current.BirthdayReminder = current.BirthdayReminder || in.BirthdayReminder
	}
	if in.Email != "" {
		current.Email = in.Email
	}
	if in.Notes != "" {
		current.Notes = in.Notes
	}
	return current
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertContact(ctx context.Context, db execer, c engine.Contact) (engine.Contact, error) {
	c.ID = uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ReminderDays, c.LastConversation, c.NextReminder,
		c.Birthday, c.BirthdayReminder, c.Email, c.Notes,
	)
	if err != nil {
		return engine.Contact{}, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return c, nil
}

func updateContact(ctx context.Context, db execer, c engine.Contact) error {
	res, err := db.ExecContext(ctx,
		`UPDATE contacts SET name = ?, reminder_days = ?, last_conversation = ?, next_reminder = ?,
		 birthday = ?, birthday_reminder = ?, email = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.ReminderDays, c.LastConversation, c.NextReminder,
		c.Birthday, c.BirthdayReminder, c.Email, c.Notes, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
