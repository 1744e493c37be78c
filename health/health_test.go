package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/libintegration/cachingsvc/cache"
	"github.com/libintegration/cachingsvc/store"
)

func TestStoreChecker(t *testing.T) {
	c := StoreChecker(store.NewMemoryStore())

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() status = %v, want healthy", result.Status)
	}
	if c.Name() != "store" {
		t.Errorf("Name() = %q, want %q", c.Name(), "store")
	}
}

// brokenStore fails every operation.
type brokenStore struct {
	store.DurableStore
}

func (s *brokenStore) Exists(ctx context.Context, id string) (bool, error) {
	return false, store.ErrUnavailable
}

func TestStoreChecker_Unhealthy(t *testing.T) {
	c := StoreChecker(&brokenStore{})

	result := c.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Check() status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, store.ErrUnavailable) {
		t.Errorf("Check() error = %v, want store.ErrUnavailable", result.Error)
	}
}

func TestFastCacheChecker(t *testing.T) {
	c := FastCacheChecker(cache.NewMemoryCache())

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() status = %v, want healthy", result.Status)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator(
		StoreChecker(store.NewMemoryStore()),
		FastCacheChecker(cache.NewMemoryCache()),
	)

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("CheckAll returned %d results, want 2", len(results))
	}
	if status := agg.OverallStatus(results); status != StatusHealthy {
		t.Errorf("OverallStatus = %v, want healthy", status)
	}

	agg.Register(StoreChecker(&brokenStore{}))
	results = agg.CheckAll(context.Background())
	if status := agg.OverallStatus(results); status != StatusUnhealthy {
		t.Errorf("OverallStatus with broken store = %v, want unhealthy", status)
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)

	LivenessHandler()(rec, req)

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "OK")
	}
}

func TestReadinessHandler(t *testing.T) {
	agg := NewAggregator(StoreChecker(store.NewMemoryStore()))

	rec := httptest.NewRecorder()
	ReadinessHandler(agg)(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want %q", resp.Status, "healthy")
	}
	if _, ok := resp.Checks["store"]; !ok {
		t.Error("response missing store check")
	}
}

func TestReadinessHandler_Unhealthy(t *testing.T) {
	agg := NewAggregator(StoreChecker(&brokenStore{}))

	rec := httptest.NewRecorder()
	ReadinessHandler(agg)(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != 503 {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
