// Package domain holds the auth event record shared by emitters, serializers, and the worker.
package domain

import "time"

// Levels carried in Event.Level.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// DefaultSource is the Source stamped on events emitted by the API server.
const DefaultSource = "otpauth"

// Event is one auth event. The field set is fixed; Message carries the free-form detail.
type Event struct {
	Name             string `json:"name"`
	Timestamp        string `json:"timestamp"` // RFC3339Nano, UTC
	Source           string `json:"source"`
	SerializerFormat string `json:"serializer_format"`
	Message          string `json:"message"`
	Level            string `json:"level"`
}

// NewEvent builds an Event stamped with now in UTC and DefaultSource.
func NewEvent(name, level, message string, now time.Time) *Event {
	if level == "" {
		level = LevelInfo
	}
	return &Event{
		Name:      name,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Source:    DefaultSource,
		Message:   message,
		Level:     level,
	}
}

// Time parses Timestamp. The zero time is returned when it is empty or malformed.
func (e *Event) Time() time.Time {
	if e == nil || e.Timestamp == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
		return t
	}
	return time.Time{}
}
