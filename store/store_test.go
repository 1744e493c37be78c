package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/libintegration/cachingsvc/payload"
)

func testEntry(id, output string) Entry {
	return Entry{
		ID: id,
		Input: payload.Payload{
			List1: []string{"first string", "second string"},
			List2: []string{"other string", "another string"},
		},
		Output:    output,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// storeUnderTest runs the DurableStore contract tests against any
// implementation.
func storeUnderTest(t *testing.T, s DurableStore) {
	t.Helper()
	ctx := context.Background()

	// Miss before any write
	ok, err := s.Exists(ctx, "missing")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Exists on empty store should return false")
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on empty store = %v, want ErrNotFound", err)
	}

	// First write
	entry := testEntry("id-1", "OUTPUT")
	if err := s.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err = s.Exists(ctx, "id-1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Exists after Put should return true")
	}

	got, err := s.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("Get returned unexpected entry (-want +got):\n%s", diff)
	}

	// Identical rewrite is a no-op
	if err := s.Put(ctx, entry); err != nil {
		t.Errorf("identical rewrite should be a no-op, got: %v", err)
	}

	// Conflicting rewrite is an invariant violation
	conflict := testEntry("id-1", "DIFFERENT")
	if err := s.Put(ctx, conflict); !errors.Is(err, ErrConflict) {
		t.Errorf("conflicting rewrite = %v, want ErrConflict", err)
	}

	// Original entry is preserved
	got, err = s.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Output != "OUTPUT" {
		t.Errorf("output after conflicting rewrite = %q, want %q", got.Output, "OUTPUT")
	}
}

func TestMemoryStore_Contract(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestFileStore_Contract(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	storeUnderTest(t, s)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	entry := testEntry("id-1", "OUTPUT")
	if err := s.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// A fresh store over the same directory sees the entry.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	got, err := reopened.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("entry changed across reopen (-want +got):\n%s", diff)
	}
}

func TestFileStore_RequiresDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore with empty dir should error")
	}
}

func TestMemoryStore_Len(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if s.Len() != 0 {
		t.Errorf("Len on empty store = %d, want 0", s.Len())
	}

	_ = s.Put(ctx, testEntry("id-1", "A"))
	_ = s.Put(ctx, testEntry("id-2", "B"))
	_ = s.Put(ctx, testEntry("id-1", "A")) // duplicate, no new entry

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}
