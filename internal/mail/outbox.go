package mail

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "mail:outbox"
	// DefaultMaxLen caps the stream when the mailer falls behind or is down.
	DefaultMaxLen = 10000
)

// Outbox queues messages on a Redis stream for the mailer worker.
type Outbox struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewOutbox(client redis.Cmdable, stream string) *Outbox {
	if stream == "" {
		stream = DefaultStream
	}
	return &Outbox{client: client, stream: stream, maxLen: DefaultMaxLen}
}

func (o *Outbox) Enqueue(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	}
	if err := o.client.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: o.maxLen,
		Approx: true,
		Values: msg.values(),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}
