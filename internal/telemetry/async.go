package telemetry

import (
	"context"
	"log/slog"
	"time"

	"phone-otp-auth/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server stops before shutting down emitters,
// so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// Errors are logged to logger (nil means slog.Default).
//
// emitter and event may be nil; EmitAsync returns immediately without starting a goroutine.
// The emit context keeps ctx's values (trace IDs) but not its cancellation.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *domain.Event, logger *slog.Logger) {
	if emitter == nil || event == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := context.WithoutCancel(ctx)
	go func() {
		emitCtx, cancel := context.WithTimeout(base, emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			logger.WarnContext(emitCtx, "telemetry: async emit failed", "event", event.Name, "error", err)
		}
	}()
}
