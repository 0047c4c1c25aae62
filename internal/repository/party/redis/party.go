package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/repository/party"
)

func (r repo) getPartyKey(partyId string) string {
	return "party:" + partyId
}

func (r repo) getPartyListKey() string {
	return "parties"
}

func (r repo) SetParty(ctx context.Context, params *party.SetPartyParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	p := party.Party{
		VideoId:         params.VideoId,
		HostId:          params.HostId,
		Title:           params.Title,
		VideoTitle:      params.VideoTitle,
		VideoThumbnail:  params.VideoThumbnail,
		Status:          party.StatusActive,
		MaxParticipants: params.MaxParticipants,
		CreatedAt:       params.CreatedAt,
		StartedAt:       params.StartedAt,
	}

	partyKey := r.getPartyKey(params.PartyId)
	r.hSetStruct(ctx, pipe, partyKey, p)
	pipe.Expire(ctx, partyKey, r.expireDuration)
	pipe.SAdd(ctx, r.getPartyListKey(), params.PartyId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to set party: %w", err)
	}

	return nil
}

func (r repo) GetParty(ctx context.Context, partyId string) (party.Party, error) {
	partyKey := r.getPartyKey(partyId)
	var p party.Party
	if err := r.rc.HGetAll(ctx, partyKey).Scan(&p); err != nil {
		return party.Party{}, fmt.Errorf("failed to get party: %w", err)
	}

	if p.HostId == "" {
		return party.Party{}, party.ErrPartyNotFound
	}

	r.rc.Expire(ctx, partyKey, r.expireDuration)

	return p, nil
}

func (r repo) GetPartyStatus(ctx context.Context, partyId string) (string, error) {
	status, err := r.rc.HGet(ctx, r.getPartyKey(partyId), "status").Result()
	if err != nil {
		if err == redis.Nil {
			return "", party.ErrPartyNotFound
		}
		return "", fmt.Errorf("failed to get party status: %w", err)
	}

	return status, nil
}

// EndParty flips only the status flag and the end timestamp. It is the first
// and authoritative step of the teardown, sub-collection cleanup follows
// separately and best-effort.
func (r repo) EndParty(ctx context.Context, params *party.EndPartyParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	partyKey := r.getPartyKey(params.PartyId)

	cmd := r.rc.Exists(ctx, partyKey)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("failed to end party: %w", err)
	}
	if cmd.Val() == 0 {
		return party.ErrPartyNotFound
	}

	if err := r.rc.HSet(ctx, partyKey,
		"status", party.StatusEnded,
		"ended_at", params.EndedAt,
	).Err(); err != nil {
		return fmt.Errorf("failed to end party: %w", err)
	}

	r.rc.SRem(ctx, r.getPartyListKey(), params.PartyId)

	return nil
}

func (r repo) GetPartyIds(ctx context.Context) ([]string, error) {
	partyIds, err := r.rc.SMembers(ctx, r.getPartyListKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get party ids: %w", err)
	}

	return partyIds, nil
}
