package limit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestLimiter_ZeroConfigAdmitsEverything(t *testing.T) {
	l := New(Config{})
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire() error = %v, want nil", err)
		}
		l.Release()
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	now := time.Now()
	l := New(Config{Rate: 10, Burst: 3})
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire() %d error = %v", i, err)
		}
	}
	if err := l.Acquire(ctx); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Acquire() after burst error = %v, want ErrRateLimited", err)
	}

	// A tenth of a second refills one token at 10/s.
	now = now.Add(100 * time.Millisecond)
	if err := l.Acquire(ctx); err != nil {
		t.Errorf("Acquire() after refill error = %v, want nil", err)
	}
}

func TestLimiter_RefillCapsAtBurst(t *testing.T) {
	now := time.Now()
	l := New(Config{Rate: 10, Burst: 2})
	l.now = func() time.Time { return now }

	// A long idle period must not accumulate more than Burst tokens.
	now = now.Add(time.Hour)
	ctx := context.Background()
	admitted := 0
	for i := 0; i < 10; i++ {
		if err := l.Acquire(ctx); err == nil {
			admitted++
		}
	}
	if admitted != 2 {
		t.Errorf("admitted %d requests after idle, want 2", admitted)
	}
}

func TestLimiter_ConcurrencyCap(t *testing.T) {
	l := New(Config{MaxConcurrent: 2})
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(ctx); !errors.Is(err, ErrSaturated) {
		t.Fatalf("Acquire() at cap error = %v, want ErrSaturated", err)
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Errorf("Acquire() after release error = %v, want nil", err)
	}
}

func TestLimiter_WaitForSlot(t *testing.T) {
	l := New(Config{MaxConcurrent: 1, MaxWait: time.Second})
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	errCh := make(chan error, 1)
	go func() {
		defer wg.Done()
		errCh <- l.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Release()
	wg.Wait()

	if err := <-errCh; err != nil {
		t.Errorf("waiting Acquire() error = %v, want nil after release", err)
	}
}

func TestLimiter_WaitTimeout(t *testing.T) {
	l := New(Config{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(ctx); !errors.Is(err, ErrSaturated) {
		t.Errorf("Acquire() error = %v, want ErrSaturated after wait expires", err)
	}
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})

	t.Run("nil limiter passes through", func(t *testing.T) {
		h := Middleware(nil, ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != 200 {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("rate limited request gets 429", func(t *testing.T) {
		now := time.Now()
		l := New(Config{Rate: 1, Burst: 1})
		l.now = func() time.Time { return now }
		h := Middleware(l, ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != 200 {
			t.Fatalf("first request status = %d, want 200", rec.Code)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("second request status = %d, want 429", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("rejected request is missing Retry-After")
		}
	})

	t.Run("saturated request gets 503", func(t *testing.T) {
		l := New(Config{MaxConcurrent: 1})
		release := make(chan struct{})
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
			w.WriteHeader(200)
		})
		h := Middleware(l, slow)

		done := make(chan struct{})
		go func() {
			defer close(done)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		}()
		time.Sleep(20 * time.Millisecond)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503 while slot is held", rec.Code)
		}

		close(release)
		<-done
	})
}
