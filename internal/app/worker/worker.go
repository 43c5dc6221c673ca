package worker

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime/debug"
	"syscall"

	"nullid/internal/app"
	kafka_impl "nullid/internal/broker/kafka"
	"nullid/internal/config"
	"nullid/internal/worker"

	"github.com/wb-go/wbf/zlog"
)

var ErrMemoryBackend = errors.New("the worker cannot share in-memory storage with the server; use minio or s3")

type Worker struct {
	cfg      *config.Config
	logger   *zlog.Zerolog
	consumer *kafka_impl.ConsumerClient
	pool     *worker.Worker
}

// NewWorker wires the processing function to the events topic and applies
// the function's memory limit and log level to this process.
func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	if cfg.Storage.Backend == "memory" {
		return nil, ErrMemoryBackend
	}
	ctx := context.Background()

	if err := app.SetLogLevel(cfg.Function.LogLevel); err != nil {
		return nil, err
	}
	debug.SetMemoryLimit(int64(cfg.Function.MemoryMB) << 20)

	m, err := app.NewMetrics()
	if err != nil {
		return nil, err
	}
	table, err := app.LoadTable(cfg)
	if err != nil {
		return nil, err
	}
	authorizer, err := app.NewAuthorizer(ctx, cfg, table)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer: %w", err)
	}
	store, err := app.NewObjectStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	fn, err := app.NewFunction(ctx, cfg, store, authorizer, m, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create function: %w", err)
	}

	consumer := kafka_impl.NewConsumerClient(cfg)

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.EventsTopic).
		Str("group", cfg.Kafka.GroupID).
		Str("function", cfg.Function.Name).
		Int("memory_mb", cfg.Function.MemoryMB).
		Dur("timeout", cfg.Function.Timeout).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	return &Worker{
		cfg:      cfg,
		logger:   logger,
		consumer: consumer,
		pool:     worker.NewWorker(consumer, fn, cfg.Worker.Concurrency, cfg.DefaultRetryStrategy(), logger),
	}, nil
}

func (w *Worker) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := w.pool.Run(ctx)

	if closeErr := w.consumer.Close(); closeErr != nil {
		w.logger.Error().Err(closeErr).Msg("Failed to close consumer")
	}
	return err
}
