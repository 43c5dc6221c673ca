package kafka

import (
	"context"

	"nullid/internal/broker"
	"nullid/internal/config"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ConsumerClient struct {
	consumer *wbkafka.Consumer
}

var _ broker.Consumer = (*ConsumerClient)(nil)

func NewConsumerClient(cfg *config.Config) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, cfg.Kafka.GroupID),
	}
}

// Start feeds out until ctx is cancelled or the reader gives up after the
// strategy's attempts. out is closed in both cases.
func (c *ConsumerClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	raw := make(chan kafka.Message, cap(out))
	c.consumer.StartConsuming(ctx, raw, strategy)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-raw:
				if !ok {
					return
				}
				select {
				case out <- FromKafka(msg):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (c *ConsumerClient) Commit(ctx context.Context, msg *broker.Message) error {
	return c.consumer.Commit(ctx, ToKafka(msg))
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}

func FromKafka(msg kafka.Message) *broker.Message {
	return &broker.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Key:       msg.Key,
		Value:     msg.Value,
		Offset:    msg.Offset,
	}
}

// ToKafka rebuilds the coordinates kafka-go needs to commit an offset.
func ToKafka(msg *broker.Message) kafka.Message {
	return kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
	}
}
