package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/domain"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if _, ok := em.(telemetry.Nop); !ok {
		t.Fatalf("NewEventEmitter(nil) = %T, want telemetry.Nop", em)
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &domain.Event{Name: "otp_requested"}); err != nil {
		t.Errorf("Emit(ctx, event): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
	n   int
}

func (r *recordCapture) Emit(_ context.Context, rec otellog.Record) {
	r.rec = rec
	r.n++
}

func TestEmit_FieldMapping(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	event := domain.NewEvent("otp_store_unavailable", domain.LevelError, "op=put", ts)

	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec
	if !rec.Timestamp().Equal(ts) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), ts)
	}
	if rec.Severity() != otellog.SeverityError || rec.SeverityText() != "ERROR" {
		t.Errorf("severity = %v/%q, want ERROR", rec.Severity(), rec.SeverityText())
	}
	if rec.EventName() != "otp_store_unavailable" {
		t.Errorf("event name = %q", rec.EventName())
	}
	if got := rec.Body().AsString(); got != "op=put" {
		t.Errorf("body = %q, want op=put", got)
	}
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	if attrs["name"] != "otp_store_unavailable" || attrs["source"] != domain.DefaultSource {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestEmit_DefaultsTimestampAndSeverity(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	before := time.Now().Add(-time.Second)

	if err := em.Emit(context.Background(), &domain.Event{Name: "x", Level: "DEBUG"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if capture.rec.Timestamp().Before(before) {
		t.Error("missing timestamp should default to now")
	}
	if capture.rec.Severity() != otellog.SeverityInfo {
		t.Errorf("unknown level severity = %v, want info", capture.rec.Severity())
	}
	if !capture.rec.Body().Empty() {
		t.Error("empty message should leave the body unset")
	}
}

func TestSeverity(t *testing.T) {
	cases := map[string]otellog.Severity{
		domain.LevelInfo:    otellog.SeverityInfo,
		domain.LevelWarning: otellog.SeverityWarn,
		domain.LevelError:   otellog.SeverityError,
		"":                  otellog.SeverityInfo,
	}
	for level, want := range cases {
		if got, _ := severity(level); got != want {
			t.Errorf("severity(%q) = %v, want %v", level, got, want)
		}
	}
}
