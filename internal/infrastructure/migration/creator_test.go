package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_payment_reason", SanitizeName("Add payment-reason"))
	assert.Equal(t, "index_v2", SanitizeName("  __Index v2!! "))
	assert.Equal(t, "", SanitizeName("---"))
}

func TestCreate_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)

	second, err := Create(dir, "Add statement keys", "statement pdf storage keys")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_statement_keys.up.sql"), second.UpPath)

	body, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- statement pdf storage keys")
	assert.FileExists(t, second.DownPath)
}

func TestCreate_RequiresName(t *testing.T) {
	_, err := Create(t.TempDir(), "!!", "")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_schedules.up.sql",
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		"abc_bad.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	entries, err := List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Version: 1, Name: "init", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 2, Name: "schedules", HasDown: false}, entries[1])
}

func TestList_MissingDir(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_RepositoryMigrations(t *testing.T) {
	entries, err := List(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, uint(1), entries[0].Version)
	for _, e := range entries {
		assert.True(t, e.HasDown, "migration %06d_%s has no down file", e.Version, e.Name)
	}
}
