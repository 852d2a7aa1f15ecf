package otp

import (
	"context"
	"fmt"
	"time"
)

// Counter records one attempt for a key and returns how many attempts fall within the
// last window, the new one included. Record and count are a single atomic operation.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter allows up to limit code requests per key within window.
type RateLimiter struct {
	counter Counter
	limit   int64
	window  time.Duration
}

// NewRateLimiter returns a limiter backed by counter. limit below 1 is treated as 1.
func NewRateLimiter(counter Counter, limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{counter: counter, limit: int64(limit), window: window}
}

// MayRequest records one attempt for key and reports whether it fits the quota.
// Increment and check are a single store operation, so concurrent callers never
// admit more than limit attempts per window. A store failure is returned as an error
// and never reported as a deny.
func (l *RateLimiter) MayRequest(ctx context.Context, key string) (bool, error) {
	n, err := l.counter.Incr(ctx, key, l.window)
	if err != nil {
		return false, fmt.Errorf("otp: rate counter: %w", err)
	}
	return n <= l.limit, nil
}
