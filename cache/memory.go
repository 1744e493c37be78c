package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process FastCache implementation. All operations
// take a single mutex, which gives MarkInFlight its compare-and-set
// semantics with respect to every concurrent caller in the process.
type MemoryCache struct {
	mu       sync.Mutex
	outputs  map[string]string
	inflight map[string]time.Time // id -> lease deadline

	// now is replaceable for lease-expiry tests.
	now func() time.Time
}

// NewMemoryCache creates an empty in-memory fast cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		outputs:  make(map[string]string),
		inflight: make(map[string]time.Time),
		now:      time.Now,
	}
}

// TryGetOutput retrieves a cached output. Returns ("", false) on miss.
func (c *MemoryCache) TryGetOutput(_ context.Context, id string) (string, bool) {
	c.mu.Lock()
	out, ok := c.outputs[id]
	c.mu.Unlock()
	return out, ok
}

// PutOutput stores the output for id. Writing the identical output twice
// is a no-op; writing a different output returns ErrOutputConflict.
func (c *MemoryCache) PutOutput(_ context.Context, id, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.outputs[id]; ok {
		if existing != output {
			return ErrOutputConflict
		}
		return nil
	}
	c.outputs[id] = output
	return nil
}

// MarkInFlight atomically claims ownership of computing id. An expired
// claim counts as absent, so a caller may take over after a crashed owner.
func (c *MemoryCache) MarkInFlight(_ context.Context, id string, lease time.Duration) (bool, error) {
	if lease <= 0 {
		lease = DefaultLease
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if deadline, ok := c.inflight[id]; ok && now.Before(deadline) {
		return false, nil
	}
	c.inflight[id] = now.Add(lease)
	return true, nil
}

// ClearInFlight releases ownership of id. Idempotent.
func (c *MemoryCache) ClearInFlight(_ context.Context, id string) error {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
	return nil
}

// InFlight reports whether an unexpired claim exists for id.
func (c *MemoryCache) InFlight(_ context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := c.inflight[id]
	if !ok {
		return false
	}
	if c.now().After(deadline) {
		// Expired - clean up lazily
		delete(c.inflight, id)
		return false
	}
	return true
}

// Len returns the number of cached outputs. Intended for tests and
// health details.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outputs)
}

// Ensure MemoryCache implements FastCache
var _ FastCache = (*MemoryCache)(nil)
