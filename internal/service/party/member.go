package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/notification"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/repository/party"
	"github.com/watchparty/server/internal/upstream"
	"golang.org/x/exp/slices"
)

func (s service) toParticipant(userId string, p party.Participant) Participant {
	return Participant{
		UserId:    userId,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		JoinedAt:  p.JoinedAt,
		LastSeen:  p.LastSeen,
		IsActive:  s.isActive(p.LastSeen),
	}
}

// isActive derives liveness from heartbeat recency. Advisory only, it never
// gates privileged operations.
func (s service) isActive(lastSeen int64) bool {
	if lastSeen == 0 {
		return false
	}

	return s.now().Unix()-lastSeen <= int64(s.cfg.PresenceTimeout.Seconds())
}

func (s service) getParticipants(ctx context.Context, partyId string) ([]Participant, error) {
	userIds, err := s.partyRepo.GetParticipantIds(ctx, partyId)
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, 0, len(userIds))
	for _, userId := range userIds {
		p, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
			PartyId: partyId,
			UserId:  userId,
		})
		if err != nil {
			if errors.Is(err, party.ErrParticipantNotFound) {
				// row reaped between the list read and here
				continue
			}
			return nil, err
		}

		participants = append(participants, s.toParticipant(userId, p))
	}

	slices.SortFunc(participants, func(a, b Participant) int {
		if a.JoinedAt != b.JoinedAt {
			return int(a.JoinedAt - b.JoinedAt)
		}
		if a.UserId < b.UserId {
			return -1
		}
		if a.UserId > b.UserId {
			return 1
		}
		return 0
	})

	return participants, nil
}

type JoinPartyParams struct {
	RequesterId string
	PartyId     string
}

type JoinPartyResponse struct {
	Participant  Participant
	Participants []Participant
}

// JoinParty is idempotent: re-joining refreshes last_seen and keeps the
// original joined_at instead of duplicating the row.
func (s service) JoinParty(ctx context.Context, params *JoinPartyParams) (JoinPartyResponse, error) {
	p, err := s.partyRepo.GetParty(ctx, params.PartyId)
	if err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return JoinPartyResponse{}, ErrPartyNotFound
		}
		return JoinPartyResponse{}, fmt.Errorf("failed to get party: %w", err)
	}

	if p.Status == party.StatusEnded {
		return JoinPartyResponse{}, ErrPartyEnded
	}

	now := s.now().Unix()
	joinedAt := now
	firstJoin := true

	existing, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
		PartyId: params.PartyId,
		UserId:  params.RequesterId,
	})
	switch {
	case err == nil:
		joinedAt = existing.JoinedAt
		firstJoin = existing.LastSeen == 0
	case errors.Is(err, party.ErrParticipantNotFound):
		count, err := s.partyRepo.GetParticipantCount(ctx, params.PartyId)
		if err != nil {
			return JoinPartyResponse{}, fmt.Errorf("failed to get participant count: %w", err)
		}
		if count >= p.MaxParticipants {
			return JoinPartyResponse{}, ErrPartyFull
		}
	default:
		return JoinPartyResponse{}, fmt.Errorf("failed to get participant: %w", err)
	}

	user, err := s.users.GetUser(ctx, params.RequesterId)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return JoinPartyResponse{}, ErrUserNotFound
		}
		return JoinPartyResponse{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	if err := s.partyRepo.SetParticipant(ctx, &party.SetParticipantParams{
		PartyId:   params.PartyId,
		UserId:    params.RequesterId,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		JoinedAt:  joinedAt,
		LastSeen:  now,
	}); err != nil {
		return JoinPartyResponse{}, fmt.Errorf("failed to set participant: %w", err)
	}

	joined := Participant{
		UserId:    params.RequesterId,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		JoinedAt:  joinedAt,
		LastSeen:  now,
		IsActive:  true,
	}

	if firstJoin {
		s.appendSystemMessage(ctx, params.PartyId, user.Username+" joined the party")
		s.publishEvent(ctx, params.PartyId, pubsub.EventMemberJoined, joined)
	}

	participants, err := s.getParticipants(ctx, params.PartyId)
	if err != nil {
		return JoinPartyResponse{}, fmt.Errorf("failed to get participants: %w", err)
	}

	return JoinPartyResponse{
		Participant:  joined,
		Participants: participants,
	}, nil
}

type LeavePartyParams struct {
	RequesterId string
	PartyId     string
}

func (s service) LeaveParty(ctx context.Context, params *LeavePartyParams) error {
	if _, err := s.partyRepo.GetPartyStatus(ctx, params.PartyId); err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return ErrPartyNotFound
		}
		return fmt.Errorf("failed to get party status: %w", err)
	}

	p, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
		PartyId: params.PartyId,
		UserId:  params.RequesterId,
	})
	if err != nil {
		if errors.Is(err, party.ErrParticipantNotFound) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to get participant: %w", err)
	}

	if err := s.partyRepo.RemoveParticipant(ctx, &party.RemoveParticipantParams{
		PartyId: params.PartyId,
		UserId:  params.RequesterId,
	}); err != nil && !errors.Is(err, party.ErrParticipantNotFound) {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	// leaving never mutates party status, even for the host
	s.appendSystemMessage(ctx, params.PartyId, p.Username+" left the party")
	s.publishEvent(ctx, params.PartyId, pubsub.EventMemberLeft, MemberLeft{UserId: params.RequesterId})

	return nil
}

type HeartbeatParams struct {
	RequesterId string
	PartyId     string
}

func (s service) Heartbeat(ctx context.Context, params *HeartbeatParams) error {
	if err := s.checkPartyActive(ctx, params.PartyId); err != nil {
		return err
	}

	if err := s.partyRepo.UpdateParticipantLastSeen(ctx, &party.UpdateParticipantLastSeenParams{
		PartyId:  params.PartyId,
		UserId:   params.RequesterId,
		LastSeen: s.now().Unix(),
	}); err != nil {
		if errors.Is(err, party.ErrParticipantNotFound) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to update last seen: %w", err)
	}

	return nil
}

type InviteParticipantsParams struct {
	RequesterId string
	PartyId     string
	InviteeIds  []string
}

type InviteParticipantsResponse struct {
	InvitedCount int
}

// InviteParticipants adds each invitee to the roster and enqueues one
// notification per invitee. Invitees are independent: one failure is logged
// and skipped, the rest proceed.
func (s service) InviteParticipants(ctx context.Context, params *InviteParticipantsParams) (InviteParticipantsResponse, error) {
	p, err := s.partyRepo.GetParty(ctx, params.PartyId)
	if err != nil {
		if errors.Is(err, party.ErrPartyNotFound) {
			return InviteParticipantsResponse{}, ErrPartyNotFound
		}
		return InviteParticipantsResponse{}, fmt.Errorf("failed to get party: %w", err)
	}

	if p.HostId != params.RequesterId {
		return InviteParticipantsResponse{}, ErrPermissionDenied
	}

	if p.Status == party.StatusEnded {
		return InviteParticipantsResponse{}, ErrPartyEnded
	}

	hostName := ""
	if host, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
		PartyId: params.PartyId,
		UserId:  p.HostId,
	}); err == nil {
		hostName = host.Username
	}

	invitedAt := s.now().Unix()
	invitedCount := 0

	for _, inviteeId := range params.InviteeIds {
		if inviteeId == params.RequesterId {
			continue
		}

		user, err := s.users.GetUser(ctx, inviteeId)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to resolve invitee", "invitee_id", inviteeId, "error", err)
			continue
		}

		joinedAt := invitedAt
		lastSeen := int64(0)
		if existing, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
			PartyId: params.PartyId,
			UserId:  inviteeId,
		}); err == nil {
			// idempotent union, re-inviting a member changes nothing
			joinedAt = existing.JoinedAt
			lastSeen = existing.LastSeen
		}

		if err := s.partyRepo.SetParticipant(ctx, &party.SetParticipantParams{
			PartyId:   params.PartyId,
			UserId:    inviteeId,
			Username:  user.Username,
			AvatarURL: user.AvatarURL,
			JoinedAt:  joinedAt,
			LastSeen:  lastSeen,
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to add invitee to roster", "invitee_id", inviteeId, "error", err)
			continue
		}

		if err := s.notifier.SendInvite(ctx, &notification.Invite{
			InviteeId:      inviteeId,
			PartyId:        params.PartyId,
			HostId:         p.HostId,
			HostName:       hostName,
			Title:          p.Title,
			VideoTitle:     p.VideoTitle,
			VideoThumbnail: p.VideoThumbnail,
			JoinLink:       s.cfg.JoinLinkBase + "/party/" + params.PartyId + "/join",
			InvitedAt:      invitedAt,
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to send invite notification", "invitee_id", inviteeId, "error", err)
			continue
		}

		s.metrics.IncInvitesSent()
		invitedCount++
	}

	return InviteParticipantsResponse{InvitedCount: invitedCount}, nil
}
