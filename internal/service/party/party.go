package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/repository/party"
	"github.com/watchparty/server/internal/upstream"
)

type CreatePartyParams struct {
	RequesterId string
	VideoId     string
	Title       string
}

type CreatePartyResponse struct {
	PartyId string
	Party   Party
}

func (s service) CreateParty(ctx context.Context, params *CreatePartyParams) (CreatePartyResponse, error) {
	video, err := s.catalog.GetVideo(ctx, params.VideoId)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return CreatePartyResponse{}, ErrVideoNotFound
		}
		return CreatePartyResponse{}, fmt.Errorf("failed to resolve video: %w", err)
	}

	host, err := s.users.GetUser(ctx, params.RequesterId)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return CreatePartyResponse{}, ErrUserNotFound
		}
		return CreatePartyResponse{}, fmt.Errorf("failed to resolve host: %w", err)
	}

	title := params.Title
	if title == "" {
		title = video.Title
	}

	partyId := uuid.NewString()
	now := s.now()

	if err := s.partyRepo.SetParty(ctx, &party.SetPartyParams{
		PartyId:         partyId,
		VideoId:         params.VideoId,
		HostId:          params.RequesterId,
		Title:           title,
		VideoTitle:      video.Title,
		VideoThumbnail:  video.Thumbnail,
		MaxParticipants: s.cfg.MaxParticipants,
		CreatedAt:       now.Unix(),
		StartedAt:       now.Unix(),
	}); err != nil {
		return CreatePartyResponse{}, fmt.Errorf("failed to set party: %w", err)
	}

	if err := s.partyRepo.SetParticipant(ctx, &party.SetParticipantParams{
		PartyId:   partyId,
		UserId:    params.RequesterId,
		Username:  host.Username,
		AvatarURL: host.AvatarURL,
		JoinedAt:  now.Unix(),
		LastSeen:  now.Unix(),
	}); err != nil {
		return CreatePartyResponse{}, fmt.Errorf("failed to seed host participant: %w", err)
	}

	if err := s.partyRepo.SetPlayer(ctx, &party.SetPlayerParams{
		PartyId:     partyId,
		Action:      party.ActionPause,
		CurrentTime: 0,
		Speed:       1,
		UpdatedAt:   now.UnixMilli(),
		HostId:      params.RequesterId,
	}); err != nil {
		return CreatePartyResponse{}, fmt.Errorf("failed to init player: %w", err)
	}

	s.metrics.IncPartiesCreated()
	s.logger.InfoContext(ctx, "party created", "party_id", partyId, "host_id", params.RequesterId, "video_id", params.VideoId)

	return CreatePartyResponse{
		PartyId: partyId,
		Party: Party{
			Id:              partyId,
			VideoId:         params.VideoId,
			HostId:          params.RequesterId,
			Title:           title,
			VideoTitle:      video.Title,
			VideoThumbnail:  video.Thumbnail,
			Status:          party.StatusActive,
			MaxParticipants: s.cfg.MaxParticipants,
			CreatedAt:       now.Unix(),
			StartedAt:       now.Unix(),
		},
	}, nil
}

type EndPartyParams struct {
	RequesterId string
	PartyId     string
}

func (s service) EndParty(ctx context.Context, params *EndPartyParams) error {
	p, err := s.partyRepo.GetParty(ctx, params.PartyId)
	if err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return ErrPartyNotFound
		}
		return fmt.Errorf("failed to get party: %w", err)
	}

	if p.HostId != params.RequesterId {
		return ErrPermissionDenied
	}

	if p.Status == party.StatusEnded {
		return ErrPartyEnded
	}

	endedAt := s.now().Unix()

	// the status flip is the authoritative step, readers stop trusting
	// playback sync the moment it lands
	if err := s.partyRepo.EndParty(ctx, &party.EndPartyParams{
		PartyId: params.PartyId,
		EndedAt: endedAt,
	}); err != nil {
		return fmt.Errorf("failed to end party: %w", err)
	}

	// sub-collection teardown is best-effort, stray rows expire via TTL
	if err := s.partyRepo.RemovePlayer(ctx, params.PartyId); err != nil && !errors.Is(err, party.ErrPlayerNotFound) {
		s.logger.WarnContext(ctx, "failed to remove player on teardown", "party_id", params.PartyId, "error", err)
	}
	if err := s.partyRepo.RemoveParticipants(ctx, params.PartyId); err != nil {
		s.logger.WarnContext(ctx, "failed to remove participants on teardown", "party_id", params.PartyId, "error", err)
	}
	if err := s.partyRepo.RemoveChat(ctx, params.PartyId); err != nil {
		s.logger.WarnContext(ctx, "failed to remove chat on teardown", "party_id", params.PartyId, "error", err)
	}

	s.publishEvent(ctx, params.PartyId, pubsub.EventPartyEnded, PartyEnded{
		PartyId: params.PartyId,
		EndedAt: endedAt,
	})

	s.metrics.IncPartiesEnded()
	s.logger.InfoContext(ctx, "party ended", "party_id", params.PartyId)

	return nil
}

type GetPartyResponse struct {
	Party        Party
	Participants []Participant
	Player       *PlaybackState
}

func (s service) GetParty(ctx context.Context, partyId string) (GetPartyResponse, error) {
	p, err := s.partyRepo.GetParty(ctx, partyId)
	if err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return GetPartyResponse{}, ErrPartyNotFound
		}
		return GetPartyResponse{}, fmt.Errorf("failed to get party: %w", err)
	}

	resp := GetPartyResponse{
		Party: Party{
			Id:              partyId,
			VideoId:         p.VideoId,
			HostId:          p.HostId,
			Title:           p.Title,
			VideoTitle:      p.VideoTitle,
			VideoThumbnail:  p.VideoThumbnail,
			Status:          p.Status,
			MaxParticipants: p.MaxParticipants,
			CreatedAt:       p.CreatedAt,
			StartedAt:       p.StartedAt,
			EndedAt:         p.EndedAt,
		},
	}

	if p.Status == party.StatusEnded {
		return resp, nil
	}

	participants, err := s.getParticipants(ctx, partyId)
	if err != nil {
		return GetPartyResponse{}, fmt.Errorf("failed to get participants: %w", err)
	}
	resp.Participants = participants

	player, err := s.partyRepo.GetPlayer(ctx, partyId)
	if err != nil {
		if !errors.Is(err, party.ErrPlayerNotFound) {
			return GetPartyResponse{}, fmt.Errorf("failed to get player: %w", err)
		}
	} else {
		resp.Player = &PlaybackState{
			Action:      player.Action,
			CurrentTime: player.CurrentTime,
			Speed:       player.Speed,
			Timestamp:   player.UpdatedAt,
			HostId:      player.HostId,
		}
	}

	return resp, nil
}
