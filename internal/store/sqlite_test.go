package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "nested", "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.Create(ctx, engine.Contact{
		ID:               "ignored",
		Name:             "Ada",
		ReminderDays:     30,
		LastConversation: "2024-01-01",
		Birthday:         "1815-12-10",
		BirthdayReminder: true,
		Email:            "ada@example.com",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", created.ID, "ids are generated by the store")
	assert.Len(t, created.ID, 36)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.ReminderDays = 14
	got.NextReminder = "2024-02-01"
	_, err = s.Update(ctx, got)
	require.NoError(t, err)

	again, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, again.ReminderDays)
	assert.Equal(t, "2024-02-01", again.NextReminder)
	assert.True(t, again.BirthdayReminder)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Update(ctx, engine.Contact{ID: "missing", Name: "x", ReminderDays: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "missing"), store.ErrNotFound)

	_, err = s.FindByName(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty, "empty list encodes as [] in JSON")
	assert.Empty(t, empty)

	for _, name := range []string{"charlie", "Bob", "alice"} {
		_, err := s.Create(ctx, engine.Contact{Name: name, ReminderDays: 7})
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "Bob", list[1].Name)
	assert.Equal(t, "charlie", list[2].Name)
}

func TestStore_Import(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	existing, err := s.Create(ctx, engine.Contact{
		Name:             "Ada Lovelace",
		ReminderDays:     14,
		LastConversation: "2024-03-01",
		NextReminder:     "2024-03-15",
	})
	require.NoError(t, err)

	stats, err := s.Import(ctx, []engine.Contact{
		{Name: "ada lovelace", ReminderDays: 30, Birthday: "1815-12-10", BirthdayReminder: true, Email: "ada@example.com"},
		{Name: "Alan Turing", ReminderDays: 30},
		{Name: "ALAN TURING", ReminderDays: 30, Notes: "duplicate in the same batch"},
	})
	require.NoError(t, err)
	assert.Equal(t, store.ImportStats{Created: 1, Updated: 2}, stats)

	ada, err := s.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", ada.Name, "existing name is kept")
	assert.Equal(t, 14, ada.ReminderDays, "existing interval is kept")
	assert.Equal(t, "2024-03-15", ada.NextReminder, "history is kept")
	assert.Equal(t, "1815-12-10", ada.Birthday)
	assert.True(t, ada.BirthdayReminder)
	assert.Equal(t, "ada@example.com", ada.Email)

	alan, err := s.FindByName(ctx, "alan turing")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing", alan.Name)
	assert.Equal(t, "duplicate in the same batch", alan.Notes)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_ImportRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tests := []struct {
		name string
		in   engine.Contact
	}{
		{"zero interval", engine.Contact{Name: "Grace Hopper", ReminderDays: 0}},
		{"interval above the maximum", engine.Contact{Name: "Grace Hopper", ReminderDays: config.MaxReminderDays + 1}},
		{"missing name", engine.Contact{ReminderDays: 30}},
		{"bad birthday", engine.Contact{Name: "Grace Hopper", ReminderDays: 30, Birthday: "december"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := s.Import(ctx, []engine.Contact{
				{Name: "Alan Turing", ReminderDays: 30},
				tt.in,
			})
			require.ErrorIs(t, err, engine.ErrInvalidContact)
			assert.Zero(t, stats)

			all, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, all, "a rejected batch writes nothing")
		})
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	c, err := s.Create(ctx, engine.Contact{Name: "Persisted", ReminderDays: 3})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening re-runs the migrations, which must be idempotent.
	s, err = store.Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
}
