package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-check/internal/domain"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "selection.json"))

	city, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, city)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir", "selection.json"))

	require.NoError(t, s.Save(context.Background(), "Brașov"))
	city, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Brașov", city)

	require.NoError(t, s.Save(context.Background(), "Sibiu"))
	city, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sibiu", city)
}

func TestFileStore_SaveStampsUpdatedAt(t *testing.T) {
	fixed := time.Date(2024, 6, 10, 7, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	path := filepath.Join(t.TempDir(), "selection.json")
	require.NoError(t, NewFileStore(path).Save(context.Background(), "Iași"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var sel selectionFile
	require.NoError(t, json.Unmarshal(data, &sel))
	assert.Equal(t, "Iași", sel.City)
	assert.True(t, fixed.Equal(sel.UpdatedAt))
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "selection.json"))
	require.NoError(t, s.Save(context.Background(), "Arad"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "selection.json", entries[0].Name())
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
}

func TestFileStore_SaveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileStore(filepath.Join(t.TempDir(), "selection.json")).Save(ctx, "Arad")
	require.ErrorIs(t, err, context.Canceled)
}
