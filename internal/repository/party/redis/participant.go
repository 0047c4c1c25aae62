package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/party"
)

func (r repo) getParticipantKey(partyId, userId string) string {
	return "party:" + partyId + ":participant:" + userId
}

func (r repo) getParticipantListKey(partyId string) string {
	return "party:" + partyId + ":participants"
}

// SetParticipant upserts the participant row, keyed by user id. Re-joining
// rewrites the hash and leaves a single roster entry behind.
func (r repo) SetParticipant(ctx context.Context, params *party.SetParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	p := party.Participant{
		Username:  params.Username,
		AvatarURL: params.AvatarURL,
		JoinedAt:  params.JoinedAt,
		LastSeen:  params.LastSeen,
	}

	participantKey := r.getParticipantKey(params.PartyId, params.UserId)
	r.hSetStruct(ctx, pipe, participantKey, p)
	pipe.Expire(ctx, participantKey, r.expireDuration)

	listKey := r.getParticipantListKey(params.PartyId)
	// score is only a join-order marker; ZADD of an existing member keeps
	// the roster entry unique
	r.addWithIncrement(ctx, pipe, listKey, params.UserId)
	pipe.Expire(ctx, listKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to set participant: %w", err)
	}

	return nil
}

func (r repo) GetParticipant(ctx context.Context, params *party.GetParticipantParams) (party.Participant, error) {
	var p party.Participant
	if err := r.rc.HGetAll(ctx, r.getParticipantKey(params.PartyId, params.UserId)).Scan(&p); err != nil {
		return party.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}

	if p.JoinedAt == 0 {
		return party.Participant{}, party.ErrParticipantNotFound
	}

	return p, nil
}

func (r repo) GetParticipantIds(ctx context.Context, partyId string) ([]string, error) {
	userIds, err := r.rc.ZRange(ctx, r.getParticipantListKey(partyId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	return userIds, nil
}

func (r repo) GetParticipantCount(ctx context.Context, partyId string) (int, error) {
	count, err := r.rc.ZCard(ctx, r.getParticipantListKey(partyId)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get participant count: %w", err)
	}

	return int(count), nil
}

func (r repo) RemoveParticipant(ctx context.Context, params *party.RemoveParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.ZRem(ctx, r.getParticipantListKey(params.PartyId), params.UserId).Err(); err != nil {
		return fmt.Errorf("failed to remove participant from list: %w", err)
	}

	res, err := r.rc.Del(ctx, r.getParticipantKey(params.PartyId, params.UserId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	if res == 0 {
		return party.ErrParticipantNotFound
	}

	return nil
}

// RemoveParticipants deletes the roster and all participant rows.
func (r repo) RemoveParticipants(ctx context.Context, partyId string) error {
	userIds, err := r.rc.ZRange(ctx, r.getParticipantListKey(partyId), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}

	pipe := r.rc.TxPipeline()
	for _, userId := range userIds {
		pipe.Del(ctx, r.getParticipantKey(partyId, userId))
	}
	pipe.Del(ctx, r.getParticipantListKey(partyId))

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove participants: %w", err)
	}

	return nil
}

func (r repo) UpdateParticipantLastSeen(ctx context.Context, params *party.UpdateParticipantLastSeenParams) error {
	key := r.getParticipantKey(params.PartyId, params.UserId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("failed to update participant last seen: %w", err)
	}

	if cmd.Val() == 0 {
		return party.ErrParticipantNotFound
	}

	if err := r.rc.HSet(ctx, key, "last_seen", params.LastSeen).Err(); err != nil {
		return fmt.Errorf("failed to update participant last seen: %w", err)
	}

	return nil
}
