package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/uniassist/internal/models"
)

// FileStore keeps one JSON file per user, named <userID>_history.json, in dir.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir. The directory is
// created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file that holds userID's history.
func (s *FileStore) Path(userID string) string {
	return filepath.Join(s.dir, userID+"_history.json")
}

func (s *FileStore) Load(_ context.Context, userID string) ([]models.Turn, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.Path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return []models.Turn{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var turns []models.Turn
	if err := json.Unmarshal(b, &turns); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return normalize(turns), nil
}

// Save writes the history to a temporary file in the same directory and renames
// it over the previous file, so readers never observe a partial write.
func (s *FileStore) Save(_ context.Context, userID string, turns []models.Turn) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	b, err := json.MarshalIndent(normalize(turns), "", "    ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, userID+"_history.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename has succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(userID)); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	err := os.Remove(s.Path(userID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
