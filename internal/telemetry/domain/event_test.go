package domain

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 5, time.FixedZone("x", 3600))
	e := NewEvent("otp_requested", "", "phone=+15550100", now)
	if e.Level != LevelInfo {
		t.Errorf("Level = %q, want %q", e.Level, LevelInfo)
	}
	if e.Source != DefaultSource {
		t.Errorf("Source = %q, want %q", e.Source, DefaultSource)
	}
	if !e.Time().Equal(now) {
		t.Errorf("Time() = %v, want %v", e.Time(), now)
	}
	if e.Timestamp != "2026-03-01T11:00:00.000000005Z" {
		t.Errorf("Timestamp = %q, want UTC RFC3339Nano", e.Timestamp)
	}
}

func TestEvent_TimeMalformed(t *testing.T) {
	var nilEvent *Event
	if !nilEvent.Time().IsZero() {
		t.Error("nil event time should be zero")
	}
	e := &Event{Timestamp: "yesterday"}
	if !e.Time().IsZero() {
		t.Error("malformed timestamp should yield zero time")
	}
}
