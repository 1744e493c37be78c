package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory DurableStore implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Exists reports whether an entry is persisted for id.
func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	_, ok := s.entries[id]
	s.mu.RUnlock()
	return ok, nil
}

// Get retrieves the entry for id. Returns ErrNotFound on miss.
func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Put persists the entry. A rewrite with an identical output is a no-op;
// a differing output returns ErrConflict.
func (s *MemoryStore) Put(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[entry.ID]; ok {
		if existing.Output != entry.Output {
			return ErrConflict
		}
		return nil
	}
	s.entries[entry.ID] = entry
	return nil
}

// Len returns the number of persisted entries. Intended for tests and
// health details.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements DurableStore
var _ DurableStore = (*MemoryStore)(nil)
