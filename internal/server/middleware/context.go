// Package middleware holds the gin middleware of the API server: bearer principal extraction,
// anonymous-token enforcement, and per-request events.
package middleware

import (
	"context"

	"phone-otp-auth/internal/security"
)

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *security.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the principal from ctx and true if set; otherwise nil, false.
func GetPrincipal(ctx context.Context) (*security.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*security.Principal)
	return p, ok && p != nil
}

// IsAnonymous reports whether the caller holds no user identity: no token, or an anonymous one.
func IsAnonymous(ctx context.Context) bool {
	p, ok := GetPrincipal(ctx)
	return !ok || p.Anonymous
}

// IsAuthenticated reports whether the caller holds a valid user access token.
func IsAuthenticated(ctx context.Context) bool {
	p, ok := GetPrincipal(ctx)
	return ok && !p.Anonymous && p.UserID != ""
}
