package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/pubsub"
)

const subscriberBuffer = 64

type bus struct {
	rc     *redis.Client
	logger *slog.Logger
}

func NewBus(rc *redis.Client, logger *slog.Logger) *bus {
	return &bus{
		rc:     rc,
		logger: logger,
	}
}

func (b bus) getEventsChannel(partyId string) string {
	return "party:" + partyId + ":events"
}

func (b bus) Publish(ctx context.Context, partyId string, event pubsub.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.rc.Publish(ctx, b.getEventsChannel(partyId), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe returns a channel of events for one party. The channel is closed
// when ctx is cancelled; cancelling one subscriber leaves no state behind and
// does not affect others.
func (b bus) Subscribe(ctx context.Context, partyId string) (<-chan pubsub.Event, error) {
	sub := b.rc.Subscribe(ctx, b.getEventsChannel(partyId))
	// force the subscription to be established before returning
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to party events: %w", err)
	}

	events := make(chan pubsub.Event, subscriberBuffer)

	go func() {
		defer close(events)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event pubsub.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.ErrorContext(ctx, "failed to unmarshal event", "error", err)
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
