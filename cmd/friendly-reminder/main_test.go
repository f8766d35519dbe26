package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/store"
	"github.com/zalando/go-keyring"
)

func TestCountSet(t *testing.T) {
	assert.Equal(t, 0, countSet("", ""))
	assert.Equal(t, 2, countSet("a", "", "b"))
}

func TestRun_UnknownCommand(t *testing.T) {
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	err := run(context.Background(), path, []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrUnknownCommand)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "first run writes default settings")
}

func TestRun_ImportRequiresOneSource(t *testing.T) {
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	err := run(context.Background(), path, []string{config.CmdImport, "-file", "a.vcf", "-url", "http://x"})
	assert.EqualError(t, err, config.ErrImportSource)
}

func TestRun_ImportRejectsDays(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	vcf := filepath.Join(dir, "people.vcf")
	require.NoError(t, os.WriteFile(vcf, []byte(
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ada Lovelace\r\nEND:VCARD\r\n"), 0o600))

	for _, days := range []string{"0", "100000"} {
		err := run(context.Background(), path, []string{config.CmdImport, "-file", vcf, "-days", days})
		assert.ErrorIs(t, err, engine.ErrInvalidContact, days)
	}

	st, err := store.Open(filepath.Join(dir, config.DatabaseName))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	contacts, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestRun_ImportFile(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	vcf := filepath.Join(dir, "people.vcf")
	require.NoError(t, os.WriteFile(vcf, []byte(
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ada Lovelace\r\nBDAY:1815-12-10\r\nEND:VCARD\r\n"), 0o600))

	require.NoError(t, run(context.Background(), path, []string{config.CmdImport, "-file", vcf, "-days", "21"}))

	st, err := store.Open(filepath.Join(dir, config.DatabaseName))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	contacts, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ada Lovelace", contacts[0].Name)
	assert.Equal(t, 21, contacts[0].ReminderDays)
	assert.Equal(t, "1815-12-10", contacts[0].Birthday)
}
