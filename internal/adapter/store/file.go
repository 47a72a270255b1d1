// Package store persists the rider's last selected city.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ride-check/internal/domain"
)

type selectionFile struct {
	City      string    `json:"city"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps the selection in a small JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path. The file and its
// directory are created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the saved city, or "" if the file does not exist yet.
func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read selection: %w", err)
	}

	var sel selectionFile
	if err := json.Unmarshal(data, &sel); err != nil {
		return "", fmt.Errorf("decode selection %s: %w", s.path, err)
	}
	return sel.City, nil
}

// Save writes the selection to a temp file in the same directory and renames
// it over the old one, so readers never see a partial file.
func (s *FileStore) Save(ctx context.Context, city string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(selectionFile{City: city, UpdatedAt: domain.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create selection dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".selection-*.json")
	if err != nil {
		return fmt.Errorf("create temp selection: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write selection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close selection: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace selection: %w", err)
	}
	return nil
}
