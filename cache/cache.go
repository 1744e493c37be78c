package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultLease is the in-flight lease applied when callers pass a
// non-positive lease duration. A bounded lease is required so that a
// crashed owner cannot wedge an id forever.
const DefaultLease = 30 * time.Second

// Sentinel errors for fast-cache operations.
var (
	// ErrNilCache is returned when operating on a nil cache.
	ErrNilCache = errors.New("cache: cache is nil")

	// ErrOutputConflict is returned when PutOutput is called with a
	// different output for an id that already has one. Outputs are
	// write-once; a conflict means the coalescing guarantee was broken
	// elsewhere and must surface as an invariant violation.
	ErrOutputConflict = errors.New("cache: conflicting output for existing id")

	// ErrUnavailable is returned when the cache backend is unreachable.
	ErrUnavailable = errors.New("cache: backend unavailable")
)

// FastCache is the low-latency tier shared by all concurrent callers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Atomicity: MarkInFlight must be a true compare-and-set; a separate
//   check followed by a separate set permits duplicate computation.
// - Errors: TryGetOutput never errors; it returns ("", false) on miss.
type FastCache interface {
	// TryGetOutput retrieves a cached output. Returns ("", false) on miss.
	// No side effects beyond the backend's own latency.
	TryGetOutput(ctx context.Context, id string) (string, bool)

	// PutOutput stores the output for id. Idempotent for identical
	// outputs; returns ErrOutputConflict for a differing rewrite.
	PutOutput(ctx context.Context, id, output string) error

	// MarkInFlight atomically claims ownership of computing id. Returns
	// true if this caller is now the sole owner, false if another holds
	// an unexpired claim. The claim expires after lease so a crashed
	// owner releases the id; lease<=0 applies DefaultLease.
	MarkInFlight(ctx context.Context, id string, lease time.Duration) (bool, error)

	// ClearInFlight releases ownership of id. Idempotent; called exactly
	// once by the owning computation on every exit path.
	ClearInFlight(ctx context.Context, id string) error

	// InFlight reports whether an unexpired in-flight claim exists for id.
	// Waiters use it to detect owner failure without claiming ownership.
	InFlight(ctx context.Context, id string) bool
}
