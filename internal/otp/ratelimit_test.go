package otp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (c *fakeCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	c.counts[key]++
	return c.counts[key], nil
}

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewRateLimiter(&fakeCounter{}, 3, time.Hour)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		ok, err := l.MayRequest(ctx, "+15550100")
		if err != nil {
			t.Fatalf("MayRequest %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d denied, want allowed", i)
		}
	}
	ok, err := l.MayRequest(ctx, "+15550100")
	if err != nil {
		t.Fatalf("MayRequest: %v", err)
	}
	if ok {
		t.Error("request 4 allowed, want denied")
	}
	ok, _ = l.MayRequest(ctx, "+15550199")
	if !ok {
		t.Error("other key should have its own quota")
	}
}

func TestRateLimiter_StoreFailureIsError(t *testing.T) {
	l := NewRateLimiter(&fakeCounter{err: ErrStoreUnavailable}, 3, time.Hour)
	ok, err := l.MayRequest(context.Background(), "k")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if ok {
		t.Error("ok should be false on error")
	}
}

func TestRateLimiter_ConcurrentBoundary(t *testing.T) {
	const limit = 5
	l := NewRateLimiter(&fakeCounter{}, limit, time.Hour)
	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := l.MayRequest(context.Background(), "k"); err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if allowed.Load() != limit {
		t.Errorf("allowed = %d, want %d", allowed.Load(), limit)
	}
}
