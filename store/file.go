package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// FileStore is a DurableStore that persists one JSON document per entry
// under a data directory. Writes go through an atomic rename, so readers
// never observe a partially written entry.
type FileStore struct {
	dir string

	// mu serializes Put for a given process. Cross-process exclusion is
	// not needed: the coalescing layer guarantees a single writer per id,
	// and the atomic rename keeps concurrent readers consistent.
	mu sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: data directory is required")
	}
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Exists reports whether an entry file is persisted for id.
func (s *FileStore) Exists(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Get retrieves the entry for id. Returns ErrNotFound on miss.
func (s *FileStore) Get(_ context.Context, id string) (Entry, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("store: decode entry %s: %w", id, err)
	}
	return entry, nil
}

// Put persists the entry atomically. A rewrite with an identical output
// is a no-op; a differing output returns ErrConflict.
func (s *FileStore) Put(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Get(ctx, entry.ID)
	switch {
	case err == nil:
		if existing.Output != entry.Output {
			return ErrConflict
		}
		return nil
	case errors.Is(err, ErrNotFound):
		// First write for this id.
	default:
		return err
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode entry %s: %w", entry.ID, err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(s.path(entry.ID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(s.path(entry.ID), filePerms); err != nil {
		return fmt.Errorf("store: set entry permissions: %w", err)
	}
	return nil
}

// Ensure FileStore implements DurableStore
var _ DurableStore = (*FileStore)(nil)
