// Package store persists OTP records and rate counters. The Redis implementation is used in
// deployments; the in-memory implementation backs tests and single-process dev runs.
package store

import (
	"context"
	"fmt"
	"time"

	"phone-otp-auth/internal/otp"
)

// ErrUnavailable is returned (wrapped) when the store cannot be reached or a call times out.
var ErrUnavailable = otp.ErrStoreUnavailable

const (
	codePrefix = "otp:code:"
	ratePrefix = "otp:rate:"
)

// Store holds at most one live OTP record per key plus a per-key request counter.
type Store interface {
	// Put overwrites any record for key. The record expires at rec.ExpiresAt.
	Put(ctx context.Context, key string, rec otp.Record) error
	// Get returns nil, nil when no record exists or it has expired.
	Get(ctx context.Context, key string) (*otp.Record, error)
	// Delete removes the record for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Incr atomically increments the request counter for key, starting a window of the
	// given length on the first increment, and returns the new count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", op, ErrUnavailable, err)
}
