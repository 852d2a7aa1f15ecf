package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"phone-otp-auth/internal/logging"
)

// Sync sets the overall ("") and per-service statuses on hs from one Check.
func Sync(ctx context.Context, c *Checker, hs *health.Server, services ...string) Report {
	rep := c.Check(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if !rep.Healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	for _, s := range services {
		hs.SetServingStatus(s, status)
	}
	return rep
}

// Run keeps hs in sync with c every interval until ctx is done, then marks everything NOT_SERVING.
func Run(ctx context.Context, c *Checker, hs *health.Server, interval time.Duration, logger *slog.Logger, services ...string) {
	logger = logging.Or(logger)
	if interval <= 0 {
		interval = 10 * time.Second
	}
	healthy := Sync(ctx, c, hs, services...).Healthy
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			rep := Sync(ctx, c, hs, services...)
			if rep.Healthy != healthy {
				logger.InfoContext(ctx, "health: readiness changed", "healthy", rep.Healthy, "checks", rep.Checks)
				healthy = rep.Healthy
			}
		}
	}
}
