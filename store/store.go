package store

import (
	"context"
	"errors"
	"time"

	"github.com/libintegration/cachingsvc/payload"
)

// Sentinel errors for durable-store operations.
var (
	// ErrNotFound is returned by Get when no entry exists for the id.
	ErrNotFound = errors.New("store: entry not found")

	// ErrConflict is returned by Put when an entry already exists for the
	// id with a different output. Entries are write-once; a conflict
	// indicates the coalescing guarantee was broken upstream.
	ErrConflict = errors.New("store: conflicting entry for existing id")

	// ErrUnavailable is returned when the backing store is unreachable.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Entry is the persisted record for one payload identifier. Created
// exactly once, by the computation that wins the coalescing race, and
// immutable thereafter.
type Entry struct {
	ID        string          `json:"payload_id"`
	Input     payload.Payload `json:"input_payload"`
	Output    string          `json:"output_payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// DurableStore is the key/value system of record for cache entries.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Write-once: Put for an existing id with an identical output is a
//   no-op; a differing output returns ErrConflict.
// - Context: methods honor cancellation/deadlines where applicable.
type DurableStore interface {
	// Exists reports whether an entry is persisted for id.
	Exists(ctx context.Context, id string) (bool, error)

	// Get retrieves the entry for id. Returns ErrNotFound on miss.
	Get(ctx context.Context, id string) (Entry, error)

	// Put persists the entry. Idempotent for identical outputs.
	Put(ctx context.Context, entry Entry) error
}
