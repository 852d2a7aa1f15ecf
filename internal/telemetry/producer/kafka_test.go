package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/domain"
)

type fakeWriter struct {
	msgs     []kafka.Message
	deadline bool
	err      error
	closed   int
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	p, err := NewKafkaProducer(nil, "topic", "json")
	if err != nil || p != nil {
		t.Fatalf("NewKafkaProducer(no brokers) = %v, %v; want nil, nil", p, err)
	}
	p, err = NewKafkaProducer([]string{"localhost:9092"}, "", "json")
	if err != nil || p != nil {
		t.Fatalf("NewKafkaProducer(no topic) = %v, %v; want nil, nil", p, err)
	}
}

func TestNewKafkaProducer_UnknownFormat(t *testing.T) {
	if _, err := NewKafkaProducer([]string{"localhost:9092"}, "t", "xml"); !errors.Is(err, telemetry.ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	for _, format := range []string{telemetry.FormatJSON, telemetry.FormatProtobuf} {
		w := &fakeWriter{}
		s, _ := telemetry.NewSerializer(format)
		p := &KafkaProducer{writer: w, serializer: s}
		event := domain.NewEvent("user_registered", domain.LevelInfo, "", time.Now())

		if err := p.Emit(context.Background(), event); err != nil {
			t.Fatalf("%s Emit: %v", format, err)
		}
		if len(w.msgs) != 1 {
			t.Fatalf("%s: wrote %d messages, want 1", format, len(w.msgs))
		}
		msg := w.msgs[0]
		if string(msg.Key) != "user_registered" {
			t.Errorf("%s: key = %q", format, msg.Key)
		}
		if HeaderFormat(msg) != format {
			t.Errorf("%s: header format = %q", format, HeaderFormat(msg))
		}
		if !w.deadline {
			t.Errorf("%s: write context has no deadline", format)
		}
		got, err := telemetry.Decode(HeaderFormat(msg), msg.Value)
		if err != nil {
			t.Fatalf("%s Decode: %v", format, err)
		}
		if got.Name != "user_registered" || got.SerializerFormat != format {
			t.Errorf("%s: decoded %+v", format, got)
		}
	}
}

func TestKafkaProducer_EmitError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &KafkaProducer{writer: w, serializer: telemetry.JSONSerializer{}}
	if err := p.Emit(context.Background(), &domain.Event{Name: "x"}); err == nil {
		t.Fatal("Emit should return the writer error")
	}
}

func TestKafkaProducer_NilSafe(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &domain.Event{}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
	w := &fakeWriter{}
	p = &KafkaProducer{writer: w, serializer: telemetry.JSONSerializer{}}
	if err := p.Emit(context.Background(), nil); err != nil || len(w.msgs) != 0 {
		t.Errorf("Emit(nil) = %v, wrote %d", err, len(w.msgs))
	}
	_ = p.Close()
	if w.closed != 1 {
		t.Errorf("closed = %d, want 1", w.closed)
	}
}

func TestHeaderFormat_Absent(t *testing.T) {
	if got := HeaderFormat(kafka.Message{}); got != "" {
		t.Errorf("HeaderFormat = %q, want empty", got)
	}
}
