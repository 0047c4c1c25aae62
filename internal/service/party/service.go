package party

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/watchparty/server/internal/metrics"
	"github.com/watchparty/server/internal/notification"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/repository/party"
	"github.com/watchparty/server/internal/upstream"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrPartyNotFound    = errors.New("party not found")
	ErrPartyEnded       = errors.New("party ended")
	ErrPartyFull        = errors.New("party full")
	ErrNotParticipant   = errors.New("not a participant")
	ErrEmptyMessage     = errors.New("empty message")
	ErrInvalidAction    = errors.New("invalid playback action")
	ErrVideoNotFound    = errors.New("video not found")
	ErrUserNotFound     = errors.New("user not found")
)

type iPartyRepo interface {
	// party
	SetParty(context.Context, *party.SetPartyParams) error
	GetParty(context.Context, string) (party.Party, error)
	GetPartyStatus(context.Context, string) (string, error)
	EndParty(context.Context, *party.EndPartyParams) error
	GetPartyIds(context.Context) ([]string, error)
	// participant
	SetParticipant(context.Context, *party.SetParticipantParams) error
	GetParticipant(context.Context, *party.GetParticipantParams) (party.Participant, error)
	GetParticipantIds(context.Context, string) ([]string, error)
	GetParticipantCount(context.Context, string) (int, error)
	RemoveParticipant(context.Context, *party.RemoveParticipantParams) error
	RemoveParticipants(context.Context, string) error
	UpdateParticipantLastSeen(context.Context, *party.UpdateParticipantLastSeenParams) error
	// player
	SetPlayer(context.Context, *party.SetPlayerParams) error
	GetPlayer(context.Context, string) (party.Player, error)
	RemovePlayer(context.Context, string) error
	// chat
	AppendMessage(context.Context, *party.AppendMessageParams) error
	GetMessageIds(context.Context, *party.GetMessageIdsParams) ([]string, error)
	GetMessage(context.Context, *party.GetMessageParams) (party.ChatMessage, error)
	RemoveChat(context.Context, string) error
}

type iEventBus interface {
	Publish(ctx context.Context, partyId string, event pubsub.Event) error
	Subscribe(ctx context.Context, partyId string) (<-chan pubsub.Event, error)
}

type iNotifier interface {
	SendInvite(ctx context.Context, invite *notification.Invite) error
}

type iVideoCatalog interface {
	GetVideo(ctx context.Context, videoId string) (upstream.Video, error)
}

type iUserDirectory interface {
	GetUser(ctx context.Context, userId string) (upstream.User, error)
}

type Config struct {
	MaxParticipants  int
	PresenceTimeout  time.Duration
	ReapAfter        time.Duration
	ChatHistoryLimit int
	JoinLinkBase     string
}

type service struct {
	partyRepo iPartyRepo
	events    iEventBus
	notifier  iNotifier
	catalog   iVideoCatalog
	users     iUserDirectory
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       *Config
	now       func() time.Time
}

func NewService(
	partyRepo iPartyRepo,
	events iEventBus,
	notifier iNotifier,
	catalog iVideoCatalog,
	users iUserDirectory,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg *Config,
) *service {
	return &service{
		partyRepo: partyRepo,
		events:    events,
		notifier:  notifier,
		catalog:   catalog,
		users:     users,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// publishEvent is best-effort: fan-out failures are logged, never surfaced to
// the caller, the durable write already happened.
func (s service) publishEvent(ctx context.Context, partyId, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal event payload", "type", eventType, "error", err)
		return
	}

	if err := s.events.Publish(ctx, partyId, pubsub.Event{
		Type:    eventType,
		Payload: raw,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "type", eventType, "party_id", partyId, "error", err)
	}
}

// checkPartyActive resolves the party's status into the service error space.
func (s service) checkPartyActive(ctx context.Context, partyId string) error {
	status, err := s.partyRepo.GetPartyStatus(ctx, partyId)
	if err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return ErrPartyNotFound
		}
		return err
	}

	if status == party.StatusEnded {
		return ErrPartyEnded
	}

	return nil
}
