package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nullid/internal/broker"
	"nullid/internal/domain"
	"nullid/internal/function"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type eventHandler interface {
	Handle(ctx context.Context, event domain.StorageEvent) (domain.FunctionResponse, error)
}

// Worker drains the events topic with a fixed pool of goroutines. A message is
// committed only after the function handled it; a failed message stays
// uncommitted and is delivered again.
type Worker struct {
	consumer    broker.Consumer
	handler     eventHandler
	strategy    retry.Strategy
	logger      *zlog.Zerolog
	concurrency int
	wg          sync.WaitGroup
}

func NewWorker(consumer broker.Consumer, handler eventHandler, concurrency int, strategy retry.Strategy, logger *zlog.Zerolog) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		consumer:    consumer,
		handler:     handler,
		strategy:    strategy,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run blocks until ctx is cancelled and every in-flight message is done. It
// returns ErrConsumerStopped when the consumer closes the stream on its own.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.strategy)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	drained := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(drained)
	}()

	w.logger.Info().Msg("Worker started successfully")
	select {
	case <-ctx.Done():
		w.logger.Info().Msg("Shutting down worker gracefully...")
		<-drained
		w.logger.Info().Msg("Worker stopped gracefully")
		return nil
	case <-drained:
		if ctx.Err() != nil {
			return nil
		}
		w.logger.Error().Msg("Consumer stopped delivering messages")
		return ErrConsumerStopped
	}
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	w.logger.Debug().Int("worker_id", id).Msg("Worker goroutine started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker goroutine stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			w.handleMessage(ctx, id, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, id int, msg *broker.Message) {
	startTime := time.Now()
	if err := w.safeProcessMessage(ctx, id, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int("worker_id", id).
			Int64("offset", msg.Offset).
			Msg("Failed to process message")
		return
	}

	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int("worker_id", id).
			Int64("offset", msg.Offset).
			Msg("Failed to commit message after successful processing")
		return
	}

	w.logger.Debug().
		Int("worker_id", id).
		Int64("offset", msg.Offset).
		Dur("duration", time.Since(startTime)).
		Msg("Message processed and committed successfully")
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage decodes one message and invokes the function. A payload that
// is not a storage event can never succeed and is reported as handled.
func (w *Worker) ProcessMessage(ctx context.Context, msg *broker.Message) error {
	event, err := function.DecodeEvent(msg.Value)
	if err != nil {
		if errors.Is(err, function.ErrInvalidEvent) {
			w.logger.Error().Err(err).Str("message", string(msg.Value)).Int64("offset", msg.Offset).Msg("Dropping malformed event")
			return nil
		}
		return err
	}

	resp, err := w.handler.Handle(ctx, event)
	if err != nil {
		return fmt.Errorf("function failed: %w", err)
	}

	w.logger.Info().
		Int("status_code", resp.StatusCode).
		Int("records", len(event.Records)).
		Int64("offset", msg.Offset).
		Msg("Event processed")
	return nil
}
