package producer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/domain"
)

// FormatHeader is the Kafka header carrying the serializer format of the message value.
const FormatHeader = "serializer_format"

const writeTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer implements Producer using segmentio/kafka-go.
type KafkaProducer struct {
	writer     messageWriter
	serializer telemetry.Serializer
}

var _ Producer = (*KafkaProducer)(nil)

// NewKafkaProducer creates a Kafka producer that writes events to topic using the named serializer format.
// It returns nil, nil when brokers or topic are empty (Kafka disabled). Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic, format string) (*KafkaProducer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	s, err := telemetry.NewSerializer(format)
	if err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, serializer: s}, nil
}

// Emit serializes the event and writes it to the topic, keyed by event name.
func (p *KafkaProducer) Emit(ctx context.Context, event *domain.Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	payload, err := p.serializer.Marshal(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:     []byte(event.Name),
		Value:   payload,
		Headers: []kafka.Header{{Key: FormatHeader, Value: []byte(p.serializer.Format())}},
	})
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// HeaderFormat returns the serializer format recorded on msg, or "" when absent.
func HeaderFormat(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == FormatHeader {
			return string(h.Value)
		}
	}
	return ""
}
