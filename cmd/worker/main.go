// Worker consumes auth events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, EVENT_KAFKA_TOPIC, KAFKA_GROUP_ID, and LOKI_URL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"phone-otp-auth/internal/config"
	"phone-otp-auth/internal/logging"
	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/domain"
	"phone-otp-auth/internal/telemetry/loki"
	"phone-otp-auth/internal/telemetry/producer"
)

const pushTimeout = 10 * time.Second

var version = "dev"

// sink receives decoded events; *loki.Client implements it.
type sink interface {
	PushEvent(ctx context.Context, event *domain.Event, line string) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("otpauth-worker", version, cfg.LogFormat, os.Stderr)

	brokers := cfg.EventKafkaBrokersList()
	if len(brokers) == 0 {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}
	if cfg.LokiURL == "" {
		logger.Error("LOKI_URL is required")
		os.Exit(1)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.EventKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker consuming", "topic", cfg.EventKafkaTopic, "group", cfg.KafkaGroupID, "loki", cfg.LokiURL)
	client := loki.NewClient(cfg.LokiURL, nil)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("worker stopped")
				return
			}
			logger.Warn("kafka read failed", "error", err)
			continue
		}
		if err := handle(ctx, msg, client); err != nil {
			logger.Warn("event dropped", "error", err, "offset", msg.Offset, "partition", msg.Partition)
		}
	}
}

// handle decodes one message in the format named by its header (sniffed when absent)
// and pushes it as a JSON line.
func handle(ctx context.Context, msg kafka.Message, s sink) error {
	event, err := telemetry.Decode(producer.HeaderFormat(msg), msg.Value)
	if err != nil {
		return err
	}
	if event == nil {
		return errors.New("worker: empty event")
	}
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	return s.PushEvent(pushCtx, event, string(line))
}
