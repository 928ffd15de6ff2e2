package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/feedradar/article-radar/internal/models"
)

// stateFile is the on-disk shape. The key name is fixed for compatibility
// with existing state files even when the configured memory size is not 2.
type stateFile struct {
	LatestTwoArticles []models.Article `json:"latest_two_articles"`
}

// FileStore persists a Memory as a single JSON document.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path. The file does not
// need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted memory. A missing file is the normal first-run
// condition and yields an empty memory with no error; an unreadable or
// corrupt file is an error.
func (s *FileStore) Load() (Memory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Memory{}, nil
	}
	if err != nil {
		return Memory{}, fmt.Errorf("read state: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return Memory{}, fmt.Errorf("decode state %s: %w", s.path, err)
	}

	return Memory{Entries: state.LatestTwoArticles}, nil
}

// Persist atomically replaces the state file with the given memory. It
// writes to a temp file in the same directory and renames it into place,
// so a crash mid-write never leaves a partial document behind.
func (s *FileStore) Persist(m Memory) error {
	entries := m.Entries
	if entries == nil {
		entries = []models.Article{}
	}

	data, err := json.Marshal(stateFile{LatestTwoArticles: entries})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}

	return nil
}
