package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-automation/models"
	"realty-automation/utils"
)

func newTestCheckpoint(t *testing.T, fallback string) (*CheckpointStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stored_identifier.json")
	return NewCheckpointStore(path, fallback, utils.NewNopLogger()), path
}

func TestCheckpointMissingFileUsesFallback(t *testing.T) {
	cp, _ := newTestCheckpoint(t, "R-1")

	got, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, "R-1", got)
}

func TestCheckpointCorruptFileUsesFallback(t *testing.T) {
	cp, path := newTestCheckpoint(t, "R-1")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	got, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, "R-1", got)
}

func TestCheckpointSaveThenLoad(t *testing.T) {
	cp, path := newTestCheckpoint(t, "")

	require.NoError(t, cp.Save("R-103"))

	got, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, "R-103", got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, map[string]string{"stored_identifier": "R-103"}, doc)
}

func TestCheckpointSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	cp, path := newTestCheckpoint(t, "")

	require.NoError(t, cp.Save("R-1"))
	require.NoError(t, cp.Save("R-2"))

	var stored models.Checkpoint
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "R-2", stored.StoredIdentifier)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckpointRejectsEmptyIdentifier(t *testing.T) {
	cp, path := newTestCheckpoint(t, "")

	assert.Error(t, cp.Save(""))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
