package coalesce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/libintegration/cachingsvc/cache"
)

// Sentinel errors for coalescing.
var (
	// ErrWaitTimeout is returned when a waiter exceeds the bounded wait
	// for an in-flight computation. The caller may resubmit: it will
	// either find the now-resolved result or re-attempt ownership.
	ErrWaitTimeout = errors.New("coalesce: timed out waiting for in-flight computation")
)

// Config configures coalescing behavior.
type Config struct {
	// Lease is the TTL on in-flight ownership marks.
	// Default: cache.DefaultLease
	Lease time.Duration

	// MaxWait bounds how long a waiter blocks for an in-flight
	// computation before reporting ErrWaitTimeout.
	// Default: 10 seconds
	MaxWait time.Duration

	// PollInterval is the initial delay between fast-cache polls for a
	// waiter that lost the ownership race to another process.
	// Default: 10ms
	PollInterval time.Duration

	// MaxPollInterval caps the poll backoff.
	// Default: 250ms
	MaxPollInterval time.Duration
}

// DefaultConfig returns the default coalescing configuration.
func DefaultConfig() Config {
	return Config{
		Lease:           cache.DefaultLease,
		MaxWait:         10 * time.Second,
		PollInterval:    10 * time.Millisecond,
		MaxPollInterval: 250 * time.Millisecond,
	}
}

// ComputeFunc produces the output for an id. It runs at most once per id
// across all callers sharing the fast cache, and is responsible for
// persisting its result before returning.
type ComputeFunc func(ctx context.Context) (string, error)

// Coalescer ensures at most one in-flight computation per identifier.
// Requests for distinct ids never contend with each other.
type Coalescer struct {
	fast   cache.FastCache
	config Config
	group  singleflight.Group
}

// New creates a Coalescer over the given fast cache.
func New(fast cache.FastCache, config Config) *Coalescer {
	// Apply defaults
	def := DefaultConfig()
	if config.Lease <= 0 {
		config.Lease = def.Lease
	}
	if config.MaxWait <= 0 {
		config.MaxWait = def.MaxWait
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.MaxPollInterval < config.PollInterval {
		config.MaxPollInterval = def.MaxPollInterval
	}

	return &Coalescer{fast: fast, config: config}
}

// Config returns the coalescing configuration.
func (c *Coalescer) Config() Config {
	return c.config
}

// Do returns the output for id, running compute at most once across all
// concurrent callers. The winner of the ownership race computes; everyone
// else waits for its result, bounded by MaxWait. A waiter that times out
// receives ErrWaitTimeout without affecting the in-flight computation.
func (c *Coalescer) Do(ctx context.Context, id string, compute ComputeFunc) (string, error) {
	// Collapse in-process duplicates onto one leader. DoChan (rather
	// than Do) lets each waiter keep its own timeout while the leader
	// runs to completion.
	ch := c.group.DoChan(id, func() (any, error) {
		return c.run(ctx, id, compute)
	})

	timer := time.NewTimer(c.config.MaxWait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", ErrWaitTimeout
	}
}

// run is the leader body: claim ownership via the fast cache's atomic
// mark, or wait for whichever caller holds it.
func (c *Coalescer) run(ctx context.Context, id string, compute ComputeFunc) (string, error) {
	deadline := time.Now().Add(c.config.MaxWait)
	interval := c.config.PollInterval

	for {
		// The owner may have resolved the id between polls.
		if out, ok := c.fast.TryGetOutput(ctx, id); ok {
			return out, nil
		}

		owned, err := c.fast.MarkInFlight(ctx, id, c.config.Lease)
		if err != nil {
			return "", fmt.Errorf("coalesce: mark in-flight: %w", err)
		}
		if owned {
			return c.compute(ctx, id, compute)
		}

		// Another owner holds the claim; wait for resolution. The claim
		// expiring without a result means the owner failed, and the next
		// loop iteration re-attempts ownership.
		if time.Now().After(deadline) {
			return "", ErrWaitTimeout
		}
		if err := sleepContext(ctx, interval); err != nil {
			return "", err
		}
		interval *= 2
		if interval > c.config.MaxPollInterval {
			interval = c.config.MaxPollInterval
		}
	}
}

// compute runs the computation as the owning caller. The in-flight mark
// is released on every exit path, success or failure, so a failed attempt
// never wedges the id.
func (c *Coalescer) compute(ctx context.Context, id string, compute ComputeFunc) (out string, err error) {
	defer func() {
		// Release even if the caller's context is already canceled.
		if clearErr := c.fast.ClearInFlight(context.WithoutCancel(ctx), id); clearErr != nil && err == nil {
			err = fmt.Errorf("coalesce: clear in-flight: %w", clearErr)
		}
	}()

	return compute(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
