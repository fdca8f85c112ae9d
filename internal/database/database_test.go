package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsStore(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	s := NewSettingsStore(db)

	_, ok, err := s.Get("theme_color")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("theme_color", "#007bff"))
	require.NoError(t, s.Set("theme_color", "#ff0000"))

	v, ok, err := s.Get("theme_color")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "#ff0000", v)

	require.NoError(t, s.Delete("theme_color"))
	_, ok, err = s.Get("theme_color")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting a missing key is not an error
	require.NoError(t, s.Delete("theme_color"))
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, NewSettingsStore(db).Set("k", "v"))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := NewSettingsStore(db).Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
