package broker

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

type Message struct {
	Topic     string
	Partition int
	Key       []byte
	Value     []byte
	Offset    int64
}

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

// Consumer delivers messages to out from Start and closes out once it stops,
// either on ctx cancellation or because the underlying reader failed.
type Consumer interface {
	Start(ctx context.Context, out chan<- *Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg *Message) error
	Close() error
}
