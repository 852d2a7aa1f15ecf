package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/domain"
)

// LoggerName is the instrumentation scope of auth event log records.
const LoggerName = "otpauth.events"

// recordEmitter is the subset of otellog.Logger the adapter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return telemetry.Nop{}
	}
	return NewEventEmitterWithLogger(provider.Logger(LoggerName))
}

// NewEventEmitterWithLogger wraps any record emitter (an otellog.Logger in production).
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to an OTel log record: Message becomes the body, Level the severity,
// and the remaining fields attributes.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.Time()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now().UTC())
	sev, text := severity(event.Level)
	rec.SetSeverity(sev)
	rec.SetSeverityText(text)
	rec.SetEventName(event.Name)
	if event.Message != "" {
		rec.SetBody(otellog.StringValue(event.Message))
	}
	rec.AddAttributes(otellog.String("name", event.Name))
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severity(level string) (otellog.Severity, string) {
	switch level {
	case domain.LevelWarning:
		return otellog.SeverityWarn, domain.LevelWarning
	case domain.LevelError:
		return otellog.SeverityError, domain.LevelError
	default:
		return otellog.SeverityInfo, domain.LevelInfo
	}
}
