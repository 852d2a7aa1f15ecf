// Package health reports readiness of the API server's backing stores over HTTP and gRPC health.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultTimeout = 2 * time.Second

// Pinger checks one dependency (e.g. *pgxpool.Pool, the Redis OTP store).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type check struct {
	name   string
	pinger Pinger
}

// Checker runs named pings concurrently, each under its own timeout.
type Checker struct {
	timeout time.Duration
	checks  []check
}

// NewChecker returns a checker with no checks. A zero timeout means 2s.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Checker{timeout: timeout}
}

// Add registers p under name. Nil pingers are ignored.
func (c *Checker) Add(name string, p Pinger) *Checker {
	if p != nil {
		c.checks = append(c.checks, check{name: name, pinger: p})
	}
	return c
}

// Report is the outcome of one Check.
type Report struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

// Check pings every dependency. Failed checks report "unavailable"; the cause is not exposed.
func (c *Checker) Check(ctx context.Context) Report {
	rep := Report{Healthy: true, Checks: make(map[string]string, len(c.checks))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, ch := range c.checks {
		wg.Add(1)
		go func(ch check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			err := ch.pinger.Ping(cctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Healthy = false
				rep.Checks[ch.name] = "unavailable"
				return
			}
			rep.Checks[ch.name] = "ok"
		}(ch)
	}
	wg.Wait()
	return rep
}

// Names returns the registered check names in sorted order.
func (c *Checker) Names() []string {
	out := make([]string, 0, len(c.checks))
	for _, ch := range c.checks {
		out = append(out, ch.name)
	}
	sort.Strings(out)
	return out
}
