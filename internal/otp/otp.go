// Package otp generates and validates one-time passcodes and throttles how often they may be requested.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

const (
	defaultDigits = 6
	defaultTTL    = 5 * time.Minute
)

// ErrStoreUnavailable is returned (wrapped) by OTP store implementations when the backing store
// cannot be reached or a call exceeds its timeout. It is never a normal "not found" or "denied".
var ErrStoreUnavailable = errors.New("otp: store unavailable")

// Record is the live code for one user key.
type Record struct {
	Code      string
	ExpiresAt time.Time
}

// Generator produces fixed-length numeric codes and their expiry instant.
type Generator struct {
	digits int
	ttl    time.Duration
	nowF   func() time.Time
}

// NewGenerator returns a Generator for codes of the given length valid for ttl.
// Zero values fall back to 6 digits and 5 minutes.
func NewGenerator(digits int, ttl time.Duration) *Generator {
	if digits <= 0 {
		digits = defaultDigits
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Generator{digits: digits, ttl: ttl, nowF: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of g that computes expiry from now.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	c := *g
	c.nowF = now
	return &c
}

// Generate returns a new code drawn from crypto/rand and the instant it stops being valid.
func (g *Generator) Generate() (string, time.Time, error) {
	code, err := randomDigits(g.digits)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, g.nowF().Add(g.ttl), nil
}

// randomDigits rejects bytes >= 250 so every digit is equally likely.
func randomDigits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Reason is the outcome of validating a submitted code.
type Reason int

const (
	ReasonValid Reason = iota
	ReasonNoActiveCode
	ReasonCodeMismatch
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonValid:
		return "valid"
	case ReasonNoActiveCode:
		return "no_active_code"
	case ReasonCodeMismatch:
		return "code_mismatch"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Validate checks submitted against rec at instant now. Checks run in order: no record,
// mismatch after trimming surrounding whitespace, then expiry (only when ExpiresAt is set).
// It does not mutate rec.
func Validate(rec *Record, submitted string, now time.Time) Reason {
	if rec == nil {
		return ReasonNoActiveCode
	}
	stored := strings.TrimSpace(rec.Code)
	if stored == "" {
		return ReasonNoActiveCode
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(submitted))) != 1 {
		return ReasonCodeMismatch
	}
	if !rec.ExpiresAt.IsZero() && !now.Before(rec.ExpiresAt) {
		return ReasonExpired
	}
	return ReasonValid
}

// Sender delivers a code to a phone number out of band.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}
