package store

import (
	"context"
	"sync"
	"time"

	"phone-otp-auth/internal/otp"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]otp.Record
	counters map[string][]time.Time
	nowF     func() time.Time
	failErr  error
}

// NewMemoryStore returns an empty in-memory store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]otp.Record),
		counters: make(map[string][]time.Time),
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for expiry. Tests share one clock with the service.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowF = now
}

// Fail makes every subsequent call return ErrUnavailable wrapping err; nil restores normal operation.
func (s *MemoryStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *MemoryStore) check(ctx context.Context, op string) error {
	if s.failErr != nil {
		return unavailable(op, s.failErr)
	}
	if err := ctx.Err(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// Put overwrites the record for key.
func (s *MemoryStore) Put(ctx context.Context, key string, rec otp.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "put"); err != nil {
		return err
	}
	s.records[key] = rec
	return nil
}

// Get returns the live record for key or nil.
func (s *MemoryStore) Get(ctx context.Context, key string) (*otp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "get"); err != nil {
		return nil, err
	}
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if !rec.ExpiresAt.IsZero() && !rec.ExpiresAt.After(s.nowF()) {
		delete(s.records, key)
		return nil, nil
	}
	return &rec, nil
}

// Delete removes the record for key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "delete"); err != nil {
		return err
	}
	delete(s.records, key)
	return nil
}

// Incr records an attempt for key and returns the attempts within the last window.
func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "incr"); err != nil {
		return 0, err
	}
	now := s.nowF()
	cutoff := now.Add(-window)
	kept := s.counters[key][:0]
	for _, at := range s.counters[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	s.counters[key] = kept
	return int64(len(kept)), nil
}
