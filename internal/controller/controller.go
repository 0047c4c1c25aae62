package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/service/party"
	"github.com/watchparty/server/pkg/validator"
)

type iPartyService interface {
	CreateParty(context.Context, *party.CreatePartyParams) (party.CreatePartyResponse, error)
	EndParty(context.Context, *party.EndPartyParams) error
	GetParty(context.Context, string) (party.GetPartyResponse, error)
	JoinParty(context.Context, *party.JoinPartyParams) (party.JoinPartyResponse, error)
	LeaveParty(context.Context, *party.LeavePartyParams) error
	Heartbeat(context.Context, *party.HeartbeatParams) error
	InviteParticipants(context.Context, *party.InviteParticipantsParams) (party.InviteParticipantsResponse, error)
	PushState(context.Context, *party.PushStateParams) (party.PushStateResponse, error)
	GetPlayerState(context.Context, string) (party.PlaybackState, error)
	PostMessage(context.Context, *party.PostMessageParams) (party.PostMessageResponse, error)
	ChatHistory(context.Context, *party.ChatHistoryParams) (party.ChatHistoryResponse, error)
	Subscribe(context.Context, string) (<-chan pubsub.Event, error)
}

type Config struct {
	Secret string
}

type controller struct {
	partyService iPartyService
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	logger       *slog.Logger
	secret       string
}

func NewController(partyService iPartyService, logger *slog.Logger, cfg *Config) *controller {
	return &controller{
		partyService: partyService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
		secret:   cfg.Secret,
	}
}
