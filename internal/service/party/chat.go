package party

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/repository/party"
)

type PostMessageParams struct {
	RequesterId string
	PartyId     string
	Message     string
	// ClientMsgId, when set, dedupes retries of the same logical message.
	ClientMsgId string
}

type PostMessageResponse struct {
	Message   ChatMessage
	Duplicate bool
}

func (s service) PostMessage(ctx context.Context, params *PostMessageParams) (PostMessageResponse, error) {
	if err := s.checkPartyActive(ctx, params.PartyId); err != nil {
		return PostMessageResponse{}, err
	}

	sender, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
		PartyId: params.PartyId,
		UserId:  params.RequesterId,
	})
	if err != nil {
		if errors.Is(err, party.ErrParticipantNotFound) {
			return PostMessageResponse{}, ErrNotParticipant
		}
		return PostMessageResponse{}, fmt.Errorf("failed to get sender: %w", err)
	}

	text := strings.TrimSpace(params.Message)
	if text == "" {
		return PostMessageResponse{}, ErrEmptyMessage
	}

	msg := ChatMessage{
		Id:        uuid.NewString(),
		UserId:    params.RequesterId,
		Username:  sender.Username,
		AvatarURL: sender.AvatarURL,
		Message:   text,
		Type:      party.MessageTypeUser,
		Timestamp: s.now().UnixMilli(),
	}

	if err := s.partyRepo.AppendMessage(ctx, &party.AppendMessageParams{
		PartyId:     params.PartyId,
		MessageId:   msg.Id,
		UserId:      msg.UserId,
		Username:    msg.Username,
		AvatarURL:   msg.AvatarURL,
		Message:     msg.Message,
		Type:        msg.Type,
		SentAt:      msg.Timestamp,
		ClientMsgId: params.ClientMsgId,
	}); err != nil {
		if errors.Is(err, party.ErrDuplicateMessage) {
			// retried send, the original already landed
			return PostMessageResponse{Duplicate: true}, nil
		}
		return PostMessageResponse{}, fmt.Errorf("failed to append message: %w", err)
	}

	s.publishEvent(ctx, params.PartyId, pubsub.EventChatMessage, msg)
	s.metrics.IncChatMessages()

	return PostMessageResponse{Message: msg}, nil
}

type ChatHistoryParams struct {
	PartyId string
	Limit   int
}

type ChatHistoryResponse struct {
	Messages []ChatMessage
}

// ChatHistory returns the most recent window in ascending timestamp order.
func (s service) ChatHistory(ctx context.Context, params *ChatHistoryParams) (ChatHistoryResponse, error) {
	if _, err := s.partyRepo.GetPartyStatus(ctx, params.PartyId); err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return ChatHistoryResponse{}, ErrPartyNotFound
		}
		return ChatHistoryResponse{}, fmt.Errorf("failed to get party status: %w", err)
	}

	limit := params.Limit
	if limit <= 0 || limit > s.cfg.ChatHistoryLimit {
		limit = s.cfg.ChatHistoryLimit
	}

	messageIds, err := s.partyRepo.GetMessageIds(ctx, &party.GetMessageIdsParams{
		PartyId: params.PartyId,
		Limit:   limit,
	})
	if err != nil {
		return ChatHistoryResponse{}, fmt.Errorf("failed to get message ids: %w", err)
	}

	messages := make([]ChatMessage, 0, len(messageIds))
	for _, messageId := range messageIds {
		msg, err := s.partyRepo.GetMessage(ctx, &party.GetMessageParams{
			PartyId:   params.PartyId,
			MessageId: messageId,
		})
		if err != nil {
			if errors.Is(err, party.ErrMessageNotFound) {
				continue
			}
			return ChatHistoryResponse{}, fmt.Errorf("failed to get message: %w", err)
		}

		messages = append(messages, ChatMessage{
			Id:        messageId,
			UserId:    msg.UserId,
			Username:  msg.Username,
			AvatarURL: msg.AvatarURL,
			Message:   msg.Message,
			Type:      msg.Type,
			Timestamp: msg.SentAt,
		})
	}

	return ChatHistoryResponse{Messages: messages}, nil
}

// appendSystemMessage is best-effort, a failed system line never fails the
// operation that produced it.
func (s service) appendSystemMessage(ctx context.Context, partyId, text string) {
	msg := ChatMessage{
		Id:        uuid.NewString(),
		Message:   text,
		Type:      party.MessageTypeSystem,
		Timestamp: s.now().UnixMilli(),
	}

	if err := s.partyRepo.AppendMessage(ctx, &party.AppendMessageParams{
		PartyId:   partyId,
		MessageId: msg.Id,
		Message:   msg.Message,
		Type:      msg.Type,
		SentAt:    msg.Timestamp,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to append system message", "party_id", partyId, "error", err)
		return
	}

	s.publishEvent(ctx, partyId, pubsub.EventChatMessage, msg)
}
