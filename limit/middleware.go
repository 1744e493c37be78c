package limit

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware wraps next with admission control. Rejected requests get
// 429 (rate limited) or 503 (saturated) with a JSON error body and a
// Retry-After hint; admitted requests pass through and release their
// slot when done.
func Middleware(l *Limiter, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.Acquire(r.Context()); err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, ErrRateLimited) {
				status = http.StatusTooManyRequests
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		defer l.Release()
		next.ServeHTTP(w, r)
	})
}
