package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("otpauth-server", "dev", "json", &buf).Info("code requested", "outcome", "sent")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "code requested", entry["msg"])
	assert.Equal(t, "otpauth-server", entry["service"])
	assert.Equal(t, "dev", entry["version"])
	assert.Equal(t, "sent", entry["outcome"])
	assert.NotContains(t, entry, "trace_id")
}

func TestSetup_Text(t *testing.T) {
	var buf bytes.Buffer
	Setup("otpauth-worker", "dev", "text", &buf).Warn("loki push failed")
	assert.Contains(t, buf.String(), "loki push failed")
	assert.Contains(t, buf.String(), "service=otpauth-worker")
}

func TestSetup_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("otpauth-server", "dev", "json", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	logger.InfoContext(ctx, "login succeeded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestSetup_WithAttrsKeepsServiceFields(t *testing.T) {
	var buf bytes.Buffer
	Setup("svc", "v1", "json", &buf).With("component", "store").WithGroup("g").Info("x", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store", entry["component"])
	assert.Contains(t, entry, "g")
}

func TestOr(t *testing.T) {
	assert.Same(t, slog.Default(), Or(nil))
	l := Discard()
	assert.Same(t, l, Or(l))
}
