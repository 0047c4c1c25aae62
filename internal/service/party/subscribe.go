package party

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/pubsub"
)

// Subscribe attaches a consumer to the party's live event feed. The returned
// channel closes when ctx is cancelled; unsubscribing leaves no residual
// state and does not affect other subscribers.
func (s service) Subscribe(ctx context.Context, partyId string) (<-chan pubsub.Event, error) {
	if err := s.checkPartyActive(ctx, partyId); err != nil {
		return nil, err
	}

	events, err := s.events.Subscribe(ctx, partyId)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return events, nil
}
