package health

import (
	"context"

	"github.com/libintegration/cachingsvc/cache"
	"github.com/libintegration/cachingsvc/store"
)

// probeID is a well-formed identifier that no payload derives: sha256 ids
// are 64 hex chars, and the probe only exercises the lookup path.
const probeID = "0000000000000000000000000000000000000000000000000000000000000000"

// StoreChecker probes the durable store with an existence lookup.
func StoreChecker(s store.DurableStore) Checker {
	return NewCheckerFunc("store", func(ctx context.Context) Result {
		if _, err := s.Exists(ctx, probeID); err != nil {
			return Unhealthy("durable store unreachable", err)
		}
		return Healthy("durable store reachable")
	})
}

// FastCacheChecker probes the fast tier with a lookup.
func FastCacheChecker(c cache.FastCache) Checker {
	return NewCheckerFunc("fast_cache", func(ctx context.Context) Result {
		// TryGetOutput never errors; reaching it without panic is the probe.
		c.TryGetOutput(ctx, probeID)
		return Healthy("fast cache reachable")
	})
}
