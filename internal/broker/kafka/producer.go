package kafka

import (
	"context"
	"fmt"

	"nullid/internal/broker"
	"nullid/internal/config"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ProducerClient struct {
	producer *wbkafka.Producer
	topic    string
	strategy retry.Strategy
}

var _ broker.Producer = (*ProducerClient)(nil)

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic),
		topic:    cfg.Kafka.EventsTopic,
		strategy: cfg.DefaultRetryStrategy(),
	}
}

func (p *ProducerClient) Publish(ctx context.Context, key, value []byte) error {
	if err := p.producer.SendWithRetry(ctx, p.strategy, key, value); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
