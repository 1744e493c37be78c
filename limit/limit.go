package limit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Sentinel errors for admission decisions.
var (
	// ErrRateLimited is returned when the token bucket is empty.
	ErrRateLimited = errors.New("limit: request rate exceeded")

	// ErrSaturated is returned when the concurrency cap is reached and no
	// slot frees up within the configured wait.
	ErrSaturated = errors.New("limit: too many requests in flight")
)

// Config configures the Limiter.
type Config struct {
	// Rate is the number of admissions allowed per second.
	// Zero disables rate limiting.
	Rate float64

	// Burst is the maximum burst size for the token bucket.
	// Default: 10 (when Rate is set)
	Burst int

	// MaxConcurrent caps requests in flight.
	// Zero disables the concurrency cap.
	MaxConcurrent int64

	// MaxWait is the maximum time to wait for a concurrency slot before
	// reporting saturation. Zero rejects immediately.
	MaxWait time.Duration
}

// Limiter admits or rejects requests. The zero-config Limiter admits
// everything.
type Limiter struct {
	config Config
	sem    *semaphore.Weighted

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a Limiter.
func New(config Config) *Limiter {
	// Apply defaults
	if config.Rate > 0 && config.Burst <= 0 {
		config.Burst = 10
	}

	l := &Limiter{
		config: config,
		tokens: float64(config.Burst),
		now:    time.Now,
	}
	l.lastRefill = l.now()
	if config.MaxConcurrent > 0 {
		l.sem = semaphore.NewWeighted(config.MaxConcurrent)
	}
	return l
}

// Acquire admits one request or reports why it cannot be admitted. On
// success the caller must call Release when the request completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.config.Rate > 0 && !l.takeToken() {
		return ErrRateLimited
	}

	if l.sem == nil {
		return nil
	}

	if l.config.MaxWait <= 0 {
		if !l.sem.TryAcquire(1) {
			return ErrSaturated
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.config.MaxWait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrSaturated
	}
	return nil
}

// Release returns a concurrency slot taken by a successful Acquire.
func (l *Limiter) Release() {
	if l.sem != nil {
		l.sem.Release(1)
	}
}

// takeToken refills the bucket by elapsed time and consumes one token.
func (l *Limiter) takeToken() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.lastRefill = now

	l.tokens += elapsed * l.config.Rate
	if max := float64(l.config.Burst); l.tokens > max {
		l.tokens = max
	}

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}
