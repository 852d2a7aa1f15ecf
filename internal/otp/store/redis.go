package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"phone-otp-auth/internal/otp"
)

const defaultTimeout = 2 * time.Second

// incrScript records one attempt in the sorted set KEYS[1] scored by its time in ms
// (ARGV[1]), drops attempts at or before ARGV[1]-ARGV[2], and returns the attempts left in
// the rolling window. ARGV[3] is a unique member so equal timestamps are all counted.
var incrScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
redis.call('ZADD', KEYS[1], now, ARGV[3])
redis.call('PEXPIRE', KEYS[1], window)
return redis.call('ZCARD', KEYS[1])
`)

// RedisStore is a Store backed by Redis. Records live in a hash {code, expires_at}
// whose key expiry matches the record's expiry.
type RedisStore struct {
	client  redis.UniversalClient
	timeout time.Duration
	nowF    func() time.Time
}

// NewRedisStore returns a store using client. Every call is bounded by timeout (2s if zero).
func NewRedisStore(client redis.UniversalClient, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RedisStore{client: client, timeout: timeout, nowF: time.Now}
}

// Put writes the record and its expiry in one transaction.
func (s *RedisStore) Put(ctx context.Context, key string, rec otp.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	k := codePrefix + key
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k, "code", rec.Code, "expires_at", strconv.FormatInt(rec.ExpiresAt.UnixMilli(), 10))
		if !rec.ExpiresAt.IsZero() {
			p.PExpireAt(ctx, k, rec.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Get returns nil when the record is absent or past its expiry.
func (s *RedisStore) Get(ctx context.Context, key string) (*otp.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	vals, err := s.client.HMGet(ctx, codePrefix+key, "code", "expires_at").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, unavailable("get", err)
	}
	code, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}
	rec := &otp.Record{Code: code}
	if raw, ok := vals[1].(string); ok && raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
			rec.ExpiresAt = time.UnixMilli(ms).UTC()
		}
	}
	if !rec.ExpiresAt.IsZero() && !rec.ExpiresAt.After(s.nowF()) {
		return nil, nil
	}
	return rec, nil
}

// Delete removes the record. Deleting a missing key succeeds.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, codePrefix+key).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Incr runs the increment script so record-and-count is one atomic store operation.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	args := []any{s.nowF().UnixMilli(), window.Milliseconds(), uuid.NewString()}
	n, err := incrScript.Run(ctx, s.client, []string{ratePrefix + key}, args...).Int64()
	if err != nil {
		return 0, unavailable("incr", err)
	}
	return n, nil
}

// Ping reports whether Redis answers within the store timeout.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
