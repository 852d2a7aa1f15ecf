// Package server assembles the HTTP API (gin) and the gRPC health server.
package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"phone-otp-auth/internal/devotp"
	devotphandler "phone-otp-auth/internal/devotp/handler"
	"phone-otp-auth/internal/health"
	identityhandler "phone-otp-auth/internal/identity/handler"
	"phone-otp-auth/internal/logging"
	"phone-otp-auth/internal/server/middleware"
	"phone-otp-auth/internal/telemetry"
)

// HealthPath is excluded from request events.
const HealthPath = "/healthz"

// Deps holds the dependencies of the HTTP API.
type Deps struct {
	// Auth serves the /v1 routes. Required.
	Auth identityhandler.AuthService
	// Tokens validates bearer tokens. Required.
	Tokens middleware.TokenValidator
	// Health backs /healthz. If nil, /healthz always reports healthy.
	Health *health.Checker
	// Emitter receives http_request events. If nil, no events are emitted.
	Emitter telemetry.EventEmitter
	Logger  *slog.Logger
	// RequireAnonToken makes the pre-authentication routes demand an anonymous bearer token.
	RequireAnonToken bool
	// DevOTP serves GET /dev/otp. Set only when dev OTP mode is enabled and not production.
	DevOTP devotp.Store
}

// NewRouter returns the gin engine serving every HTTP route.
//
// Route → handler mapping:
//   - /v1/verification-code/get, /v1/login/*, /v1/anonymous/*, /v1/token/refresh → internal/identity/handler
//   - /healthz → internal/health
//   - /dev/otp → internal/devotp/handler
func NewRouter(deps Deps) *gin.Engine {
	logger := logging.Or(deps.Logger)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestEvents(deps.Emitter, logger, HealthPath))
	r.Use(middleware.Principal(deps.Tokens))

	checker := deps.Health
	if checker == nil {
		checker = health.NewChecker(0)
	}
	r.GET(HealthPath, health.Handler(checker))

	identityhandler.New(deps.Auth).Register(r.Group("/v1"), middleware.RequireAnonymous(deps.RequireAnonToken))

	if deps.DevOTP != nil {
		devotphandler.New(deps.DevOTP).Register(r)
	}
	return r
}
