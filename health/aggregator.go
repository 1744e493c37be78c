package health

import (
	"context"
	"sync"
)

// Aggregator runs a set of checkers and combines their results.
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator creates an aggregator over the given checkers.
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{checkers: checkers}
}

// Register adds a checker.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	a.checkers = append(a.checkers, c)
	a.mu.Unlock()
}

// CheckAll runs every checker concurrently and returns results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make([]Checker, len(a.checkers))
	copy(checkers, a.checkers)
	a.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	var (
		wg sync.WaitGroup
		rm sync.Mutex
	)

	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := c.Check(ctx)
			rm.Lock()
			results[c.Name()] = result
			rm.Unlock()
		}(c)
	}
	wg.Wait()

	return results
}

// OverallStatus reduces a result set to a single status: unhealthy if any
// check is unhealthy, healthy otherwise.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}
	return StatusHealthy
}
