package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/watchparty/server/internal/notification"
)

type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(brokers []string, topic string, logger *slog.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

func (p *Producer) SendInvite(ctx context.Context, invite *notification.Invite) error {
	value, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("failed to marshal invite: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(invite.InviteeId),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write invite message: %w", err)
	}

	p.logger.DebugContext(ctx, "invite notification sent", "invitee_id", invite.InviteeId, "party_id", invite.PartyId)

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
