package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "phone-otp-auth/identity"

// Outcomes recorded on the otp.requests and otp.logins counters.
const (
	outcomeRegistered         = "registered"
	outcomeSent               = "sent"
	outcomeSuccess            = "success"
	outcomeInvalidInput       = "invalid_input"
	outcomeBlocked            = "blocked"
	outcomeNotFound           = "not_found"
	outcomeRateLimited        = "rate_limited"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeUnavailable        = "unavailable"
	outcomeError              = "error"
)

type metrics struct {
	requests metric.Int64Counter
	logins   metric.Int64Counter
}

func newMetrics(meter metric.Meter) *metrics {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	fallback := noop.NewMeterProvider().Meter(meterName)
	requests, err := meter.Int64Counter("otp.requests",
		metric.WithDescription("Verification code requests by outcome"))
	if err != nil {
		requests, _ = fallback.Int64Counter("otp.requests")
	}
	logins, err := meter.Int64Counter("otp.logins",
		metric.WithDescription("OTP login attempts by outcome"))
	if err != nil {
		logins, _ = fallback.Int64Counter("otp.logins")
	}
	return &metrics{requests: requests, logins: logins}
}

func (m *metrics) request(ctx context.Context, outcome string) {
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) login(ctx context.Context, outcome string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
