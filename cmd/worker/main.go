// Worker consumes user events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, USER_EVENTS_TOPIC, KAFKA_GROUP_ID, and LOKI_URL.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"user-registry/internal/config"
	"user-registry/internal/logging"
	"user-registry/internal/telemetry/loki"
)

// pushTimeout bounds a single Loki push.
const pushTimeout = 10 * time.Second

// messageReader is the part of *kafka.Reader the worker uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// pusher is the part of *loki.Client the worker uses.
type pusher interface {
	PushEventJSON(ctx context.Context, rawJSON []byte) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("worker: config", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := logging.New(os.Stdout, level, nil)

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Error("worker: KAFKA_BROKERS is required")
		os.Exit(1)
	}
	client, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		logger.Error("worker: LOKI_URL is required", "error", err)
		os.Exit(1)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.UserEventsTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  1 * time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker: consuming", "topic", cfg.UserEventsTopic, "group", cfg.KafkaGroupID, "loki", cfg.LokiURL)
	consume(ctx, reader, client, logger)
	logger.Info("worker: stopped")
}

// consume forwards messages until ctx is done. Each message gets one push attempt and is then committed;
// push and read failures are logged.
func consume(ctx context.Context, reader messageReader, client pusher, logger *slog.Logger) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			logger.Warn("worker: kafka read", "error", err)
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err = client.PushEventJSON(pushCtx, msg.Value)
		cancel()
		if err != nil {
			logger.Warn("worker: loki push failed", "offset", msg.Offset, "error", err)
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Warn("worker: kafka commit", "offset", msg.Offset, "error", err)
		}
	}
}
