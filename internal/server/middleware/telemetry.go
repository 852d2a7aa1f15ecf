package middleware

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"phone-otp-auth/internal/logging"
	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/domain"
)

// EventHTTPRequest is emitted once per served request.
const EventHTTPRequest = "http_request"

// httpRequestMessage is the JSON shape stored in Event.Message for http_request events.
type httpRequestMessage struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// RequestEvents logs every request and emits an http_request event after it is served.
// Best-effort: emit failures are logged and do not affect the response. skipPaths are neither logged nor emitted.
func RequestEvents(emitter telemetry.EventEmitter, logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	logger = logging.Or(logger)
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if skip[c.Request.URL.Path] {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		msg := httpRequestMessage{
			Method:     c.Request.Method,
			Route:      route,
			Status:     c.Writer.Status(),
			DurationMs: time.Since(start).Milliseconds(),
			ClientIP:   c.ClientIP(),
		}
		ctx := c.Request.Context()
		logger.InfoContext(ctx, "http request",
			"method", msg.Method, "route", msg.Route, "status", msg.Status, "duration_ms", msg.DurationMs)
		level := domain.LevelInfo
		if msg.Status >= 500 {
			level = domain.LevelError
		}
		body, _ := json.Marshal(msg)
		telemetry.EmitAsync(emitter, ctx, domain.NewEvent(EventHTTPRequest, level, string(body), time.Now()), logger)
	}
}
