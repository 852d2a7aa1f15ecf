package telemetry

import (
	"context"
	"errors"

	"phone-otp-auth/internal/telemetry/domain"
)

// EventEmitter emits auth events (e.g. to Kafka or OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, *domain.Event) error { return nil }

// Fanout sends each event to every non-nil emitter and joins their errors.
type Fanout []EventEmitter

// NewFanout drops nil emitters. With none left it returns Nop.
func NewFanout(emitters ...EventEmitter) EventEmitter {
	var out Fanout
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}

func (f Fanout) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range f {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
