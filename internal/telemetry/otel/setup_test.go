package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "test-service", "v0", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatalf("NewProviders(%q) left a provider nil", endpoint)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be no-op for empty endpoint, got error: %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "test-service", "v0", false); err == nil {
			t.Errorf("NewProviders(%q) should return error", endpoint)
		}
	}
}

func TestNewProviders_WithEndpoint(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "localhost:4317", "test-service", "v0", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.LoggerProvider == nil {
		t.Fatal("LoggerProvider should not be nil")
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	// Exporters may fail to flush with nothing listening; shutdown must not panic.
	_ = providers.Shutdown(shutdownCtx)
}

func TestDialTarget(t *testing.T) {
	cases := []struct {
		endpoint string
		target   string
		insecure bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://collector:4317", "collector:4317", true},
		{"https://collector:4317/v1/traces", "collector:4317", false},
		{"", "", false},
	}
	for _, c := range cases {
		target, insecure, err := dialTarget(c.endpoint)
		if err != nil {
			t.Fatalf("dialTarget(%q): %v", c.endpoint, err)
		}
		if target != c.target || insecure != c.insecure {
			t.Errorf("dialTarget(%q) = %q, %v; want %q, %v", c.endpoint, target, insecure, c.target, c.insecure)
		}
	}
}

func TestSetGlobal(t *testing.T) {
	var nilProviders *Providers
	nilProviders.SetGlobal() // must not panic

	providers, err := NewProviders(context.Background(), "", "test-service", "v0", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	providers.SetGlobal()
	if otel.GetTracerProvider() != providers.TracerProvider {
		t.Error("global TracerProvider not set")
	}
	if otel.GetMeterProvider() != providers.MeterProvider {
		t.Error("global MeterProvider not set")
	}
}
