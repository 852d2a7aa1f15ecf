// Package devotp keeps the last code sent to each phone so it can be read back at GET /dev/otp.
// Used only when dev OTP mode is enabled; it stands in for SMS delivery.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds plain codes by normalized phone for dev-only retrieval. Not used in production.
type Store interface {
	// Put stores code for phone until expiresAt, replacing any earlier code.
	Put(ctx context.Context, phone, code string, expiresAt time.Time)
	// Get returns the code for phone if present and not expired.
	Get(ctx context.Context, phone string) (code string, ok bool)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store. It also implements otp.Sender.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	ttl  time.Duration
	nowF func() time.Time
}

// NewMemoryStore returns a dev store whose delivered codes are readable for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryStore{
		m:    make(map[string]entry),
		ttl:  ttl,
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores code for phone until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[phone] = entry{code: code, expiresAt: expiresAt}
}

// Get returns the code for phone if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, phone string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, phone)
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}

// SendOTP records the code instead of sending it.
func (s *MemoryStore) SendOTP(ctx context.Context, phone, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Put(ctx, phone, code, s.nowF().Add(s.ttl))
	return nil
}
