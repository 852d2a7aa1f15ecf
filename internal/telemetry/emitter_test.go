package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestNewFanout_DropsNil(t *testing.T) {
	if _, ok := NewFanout().(Nop); !ok {
		t.Error("empty fanout should be Nop")
	}
	if _, ok := NewFanout(nil, nil).(Nop); !ok {
		t.Error("all-nil fanout should be Nop")
	}
	single := newMockEmitter(1)
	if got := NewFanout(nil, single); got != EventEmitter(single) {
		t.Error("single emitter should be returned as is")
	}
}

func TestFanout_EmitsToAllAndJoinsErrors(t *testing.T) {
	a := newMockEmitter(1)
	b := newMockEmitter(1)
	errB := errors.New("b failed")
	b.emitErr = errB

	err := NewFanout(a, b).Emit(context.Background(), testEvent())
	if !errors.Is(err, errB) {
		t.Errorf("err = %v, want %v", err, errB)
	}
	if len(a.getEvents()) != 1 || len(b.getEvents()) != 1 {
		t.Error("every emitter should receive the event")
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Emit(context.Background(), nil); err != nil {
		t.Errorf("Nop.Emit: %v", err)
	}
}
