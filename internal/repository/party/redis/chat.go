package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/watchparty/server/internal/repository/party"
)

const dedupTTL = 5 * time.Minute

func (r repo) getChatKey(partyId string) string {
	return "party:" + partyId + ":chat"
}

func (r repo) getMessageKey(partyId, messageId string) string {
	return "party:" + partyId + ":chatmsg:" + messageId
}

func (r repo) getDedupKey(partyId, clientMsgId string) string {
	return "party:" + partyId + ":chatdedup:" + clientMsgId
}

// AppendMessage appends to the party's ordered chat log. The zset score is
// assigned atomically one past the current maximum, so concurrent appends
// from distinct senders end up in a total order matching server timestamps.
func (r repo) AppendMessage(ctx context.Context, params *party.AppendMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	if params.ClientMsgId != "" {
		set, err := r.rc.SetNX(ctx, r.getDedupKey(params.PartyId, params.ClientMsgId), params.MessageId, dedupTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to check message dedup key: %w", err)
		}
		if !set {
			return party.ErrDuplicateMessage
		}
	}

	pipe := r.rc.TxPipeline()

	msg := party.ChatMessage{
		UserId:    params.UserId,
		Username:  params.Username,
		AvatarURL: params.AvatarURL,
		Message:   params.Message,
		Type:      params.Type,
		SentAt:    params.SentAt,
	}

	messageKey := r.getMessageKey(params.PartyId, params.MessageId)
	r.hSetStruct(ctx, pipe, messageKey, msg)
	pipe.Expire(ctx, messageKey, r.expireDuration)

	chatKey := r.getChatKey(params.PartyId)
	r.addWithIncrement(ctx, pipe, chatKey, params.MessageId)
	pipe.Expire(ctx, chatKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		// release the dedup claim so a retry of the same client id can land
		if params.ClientMsgId != "" {
			if delErr := r.rc.Del(ctx, r.getDedupKey(params.PartyId, params.ClientMsgId)).Err(); delErr != nil {
				r.logger.WarnContext(ctx, "failed to release dedup key", "party_id", params.PartyId, "client_msg_id", params.ClientMsgId, "error", delErr)
			}
		}
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

// GetMessageIds returns message ids in append order. With a positive limit
// only the most recent window is returned, still ascending.
func (r repo) GetMessageIds(ctx context.Context, params *party.GetMessageIdsParams) ([]string, error) {
	start := int64(0)
	if params.Limit > 0 {
		start = -int64(params.Limit)
	}

	messageIds, err := r.rc.ZRange(ctx, r.getChatKey(params.PartyId), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat message ids: %w", err)
	}

	return messageIds, nil
}

func (r repo) GetMessage(ctx context.Context, params *party.GetMessageParams) (party.ChatMessage, error) {
	var msg party.ChatMessage
	if err := r.rc.HGetAll(ctx, r.getMessageKey(params.PartyId, params.MessageId)).Scan(&msg); err != nil {
		return party.ChatMessage{}, fmt.Errorf("failed to get chat message: %w", err)
	}

	if msg.SentAt == 0 {
		return party.ChatMessage{}, party.ErrMessageNotFound
	}

	return msg, nil
}

// RemoveChat deletes the chat log and its messages in one best-effort pipe.
func (r repo) RemoveChat(ctx context.Context, partyId string) error {
	messageIds, err := r.rc.ZRange(ctx, r.getChatKey(partyId), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list chat messages: %w", err)
	}

	pipe := r.rc.TxPipeline()
	for _, messageId := range messageIds {
		pipe.Del(ctx, r.getMessageKey(partyId, messageId))
	}
	pipe.Del(ctx, r.getChatKey(partyId))

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove chat: %w", err)
	}

	return nil
}
