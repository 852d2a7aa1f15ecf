package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"phone-otp-auth/internal/security"
	"phone-otp-auth/internal/server/response"
)

const bearerPrefix = "bearer "

// TokenValidator checks access and anonymous tokens.
type TokenValidator interface {
	ValidateAccess(token string) (*security.Principal, error)
}

// Principal validates the Bearer token, if any, and stores the principal in the request context.
// Missing or invalid tokens leave the request without a principal; routes decide whether that is allowed.
func Principal(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		p, err := tokens.ValidateAccess(token)
		if err != nil {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireAnonymous rejects requests that do not carry a valid anonymous token.
// When required is false every request passes.
func RequireAnonymous(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !required {
			c.Next()
			return
		}
		p, ok := GetPrincipal(c.Request.Context())
		if !ok || !p.Anonymous {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthenticated, "anonymous token required")
			return
		}
		c.Next()
	}
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
