// Package inproc delivers published messages to a handler in the same
// process. It backs local runs where no Kafka cluster is available.
package inproc

import (
	"context"
	"errors"
	"sync"

	"nullid/internal/broker"

	"github.com/wb-go/wbf/zlog"
)

var ErrClosed = errors.New("producer closed")

type HandleFunc func(ctx context.Context, msg *broker.Message) error

type Producer struct {
	handle HandleFunc
	logger *zlog.Zerolog

	mu     sync.Mutex
	closed bool
	offset int64
	wg     sync.WaitGroup
}

var _ broker.Producer = (*Producer)(nil)

func NewProducer(handle HandleFunc, logger *zlog.Zerolog) *Producer {
	return &Producer{
		handle: handle,
		logger: logger,
	}
}

// Publish hands the message to the handler on its own goroutine and returns
// immediately, like an asynchronous trigger.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	msg := &broker.Message{Topic: "inproc", Key: key, Value: value, Offset: p.offset}
	p.offset++
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().Interface("panic", r).Int64("offset", msg.Offset).Msg("Panic recovered in in-process handler")
			}
		}()
		if err := p.handle(context.WithoutCancel(ctx), msg); err != nil {
			p.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("In-process handler failed")
		}
	}()
	return nil
}

// Close stops accepting messages and waits for running handlers.
func (p *Producer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}
