package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/party"
)

func (r repo) getPlayerKey(partyId string) string {
	return "party:" + partyId + ":player"
}

// SetPlayer overwrites the whole playback row, last writer wins.
func (r repo) SetPlayer(ctx context.Context, params *party.SetPlayerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	p := party.Player{
		Action:      params.Action,
		CurrentTime: params.CurrentTime,
		Speed:       params.Speed,
		UpdatedAt:   params.UpdatedAt,
		HostId:      params.HostId,
	}

	playerKey := r.getPlayerKey(params.PartyId)
	r.hSetStruct(ctx, pipe, playerKey, p)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (r repo) GetPlayer(ctx context.Context, partyId string) (party.Player, error) {
	playerKey := r.getPlayerKey(partyId)
	var p party.Player
	if err := r.rc.HGetAll(ctx, playerKey).Scan(&p); err != nil {
		return party.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	if p.Action == "" {
		return party.Player{}, party.ErrPlayerNotFound
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return p, nil
}

func (r repo) RemovePlayer(ctx context.Context, partyId string) error {
	res, err := r.rc.Del(ctx, r.getPlayerKey(partyId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}

	if res == 0 {
		return party.ErrPlayerNotFound
	}

	return nil
}
