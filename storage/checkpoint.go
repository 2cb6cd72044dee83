package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"realty-automation/models"
	"realty-automation/utils"
)

// CheckpointStore persists the monitor's high-water mark as a one-field
// JSON document. It is read once at start and written at most once at end.
type CheckpointStore struct {
	path     string
	fallback string
	logger   *utils.Logger
}

// NewCheckpointStore returns a store at path. fallback is returned by Load
// when no usable checkpoint exists yet.
func NewCheckpointStore(path, fallback string, logger *utils.Logger) *CheckpointStore {
	return &CheckpointStore{path: path, fallback: fallback, logger: logger}
}

// Path returns the checkpoint file location.
func (s *CheckpointStore) Path() string {
	return s.path
}

// Load returns the stored identifier. A missing file, a corrupt document or
// an empty identifier all yield the fallback.
func (s *CheckpointStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("[checkpoint] %s not found, using fallback %q", s.path, s.fallback)
		return s.fallback, nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "checkpoint: read %s", s.path)
	}

	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.Warn("[checkpoint] %s is not valid JSON (%v), using fallback %q", s.path, err, s.fallback)
		return s.fallback, nil
	}
	if cp.StoredIdentifier == "" {
		return s.fallback, nil
	}
	return cp.StoredIdentifier, nil
}

// Save overwrites the checkpoint. The document is written to a temp file in
// the same directory and renamed into place so readers never see a partial file.
func (s *CheckpointStore) Save(identifier string) error {
	if identifier == "" {
		return eris.New("checkpoint: refusing to save an empty identifier")
	}

	data, err := json.MarshalIndent(models.Checkpoint{StoredIdentifier: identifier}, "", "    ")
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrapf(err, "checkpoint: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return eris.Wrap(err, "checkpoint: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "checkpoint: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "checkpoint: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "checkpoint: close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return eris.Wrapf(err, "checkpoint: replace %s", s.path)
	}
	return nil
}
