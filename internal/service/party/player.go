package party

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/repository/party"
)

// DriftTolerance is the playhead divergence, in seconds, beyond which a
// viewer hard-seeks to the expected position.
const DriftTolerance = 1.0

type PushStateParams struct {
	RequesterId string
	PartyId     string
	Action      string
	CurrentTime float64
	Speed       float64
}

type PushStateResponse struct {
	State PlaybackState
}

// PushState is the single-writer path: the requester is re-checked against
// the stored host id on every call, a client-supplied host flag is never
// trusted. Rejected pushes leave the state untouched.
func (s service) PushState(ctx context.Context, params *PushStateParams) (PushStateResponse, error) {
	switch params.Action {
	case party.ActionPlay, party.ActionPause, party.ActionSeek:
	default:
		return PushStateResponse{}, ErrInvalidAction
	}

	p, err := s.partyRepo.GetParty(ctx, params.PartyId)
	if err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return PushStateResponse{}, ErrPartyNotFound
		}
		return PushStateResponse{}, fmt.Errorf("failed to get party: %w", err)
	}

	if p.Status == party.StatusEnded {
		return PushStateResponse{}, ErrPartyEnded
	}

	if p.HostId != params.RequesterId {
		return PushStateResponse{}, ErrPermissionDenied
	}

	speed := params.Speed
	if speed <= 0 {
		speed = 1
	}

	state := PlaybackState{
		Action:      params.Action,
		CurrentTime: params.CurrentTime,
		Speed:       speed,
		Timestamp:   s.now().UnixMilli(),
		HostId:      p.HostId,
	}

	if err := s.partyRepo.SetPlayer(ctx, &party.SetPlayerParams{
		PartyId:     params.PartyId,
		Action:      state.Action,
		CurrentTime: state.CurrentTime,
		Speed:       state.Speed,
		UpdatedAt:   state.Timestamp,
		HostId:      state.HostId,
	}); err != nil {
		return PushStateResponse{}, fmt.Errorf("failed to set player: %w", err)
	}

	s.publishEvent(ctx, params.PartyId, pubsub.EventPlayerUpdated, state)

	return PushStateResponse{State: state}, nil
}

func (s service) GetPlayerState(ctx context.Context, partyId string) (PlaybackState, error) {
	if err := s.checkPartyActive(ctx, partyId); err != nil {
		return PlaybackState{}, err
	}

	player, err := s.partyRepo.GetPlayer(ctx, partyId)
	if err != nil {
		// the party is active here, a missing player row is absence, not
		// termination
		if errors.Is(err, party.ErrPlayerNotFound) {
			return PlaybackState{}, ErrPartyNotFound
		}
		return PlaybackState{}, fmt.Errorf("failed to get player: %w", err)
	}

	return PlaybackState{
		Action:      player.Action,
		CurrentTime: player.CurrentTime,
		Speed:       player.Speed,
		Timestamp:   player.UpdatedAt,
		HostId:      player.HostId,
	}, nil
}

// SyncDecision tells a viewer how to reconcile its local player against the
// authoritative state.
type SyncDecision struct {
	Expected     float64 `json:"expected"`
	Drift        float64 `json:"drift"`
	ShouldSeek   bool    `json:"should_seek"`
	ShouldResume bool    `json:"should_resume"`
	ShouldPause  bool    `json:"should_pause"`
}

// ComputeSync runs the receiver-side drift correction: the expected position
// advances with wall time only while the authority says play, and the local
// playhead hard-seeks once the divergence exceeds DriftTolerance. This is a
// tolerance band, not continuous rate adjustment.
func ComputeSync(state PlaybackState, now time.Time, localPlayhead float64, localPlaying bool) SyncDecision {
	elapsed := float64(now.UnixMilli()-state.Timestamp) / 1000
	if elapsed < 0 {
		elapsed = 0
	}

	expected := state.CurrentTime
	if state.Action == party.ActionPlay {
		expected += elapsed
	}

	drift := math.Abs(expected - localPlayhead)

	return SyncDecision{
		Expected:     expected,
		Drift:        drift,
		ShouldSeek:   drift > DriftTolerance,
		ShouldResume: state.Action == party.ActionPlay && !localPlaying,
		ShouldPause:  state.Action == party.ActionPause && localPlaying,
	}
}
