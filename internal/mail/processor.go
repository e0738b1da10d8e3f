package mail

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Processor turns outbox stream entries into deliveries.
type Processor struct {
	sender Sender
	logger zerolog.Logger
}

func NewProcessor(sender Sender, logger zerolog.Logger) *Processor {
	return &Processor{
		sender: sender,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	message, err := decodeMessage(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed mail")
		return err
	}

	if err := p.sender.Send(ctx, message); err != nil {
		return fmt.Errorf("send mail %s: %w", msg.ID, err)
	}

	p.logger.Info().
		Str("message_id", msg.ID).
		Str("subject", message.Subject).
		Msg("mail delivered")
	return nil
}
