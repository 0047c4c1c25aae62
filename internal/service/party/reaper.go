package party

import (
	"context"
	"errors"
	"time"

	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/repository/party"
)

// RunReaper periodically removes participant rows that have been silent
// beyond the reap threshold, bounding roster size. Correctness does not
// depend on it: staleness is always derived at read time.
//
// The host row is never reaped and a host's silence never ends the party.
// Promoting a replacement or auto-ending on host absence is a product
// decision; the primitives for either (presence data, EndParty) are already
// exposed.
func (s service) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapStaleParticipants(ctx)
		}
	}
}

func (s service) reapStaleParticipants(ctx context.Context) {
	partyIds, err := s.partyRepo.GetPartyIds(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "reaper failed to list parties", "error", err)
		return
	}

	cutoff := s.now().Unix() - int64(s.cfg.ReapAfter.Seconds())

	for _, partyId := range partyIds {
		p, err := s.partyRepo.GetParty(ctx, partyId)
		if err != nil || p.Status != party.StatusActive {
			continue
		}

		userIds, err := s.partyRepo.GetParticipantIds(ctx, partyId)
		if err != nil {
			s.logger.WarnContext(ctx, "reaper failed to list participants", "party_id", partyId, "error", err)
			continue
		}

		for _, userId := range userIds {
			if userId == p.HostId {
				continue
			}

			participant, err := s.partyRepo.GetParticipant(ctx, &party.GetParticipantParams{
				PartyId: partyId,
				UserId:  userId,
			})
			if err != nil {
				continue
			}

			// invited-but-never-joined rows have no heartbeat to expire
			if participant.LastSeen == 0 || participant.LastSeen > cutoff {
				continue
			}

			if err := s.partyRepo.RemoveParticipant(ctx, &party.RemoveParticipantParams{
				PartyId: partyId,
				UserId:  userId,
			}); err != nil && !errors.Is(err, party.ErrParticipantNotFound) {
				s.logger.WarnContext(ctx, "reaper failed to remove participant", "party_id", partyId, "user_id", userId, "error", err)
				continue
			}

			s.logger.InfoContext(ctx, "reaped stale participant", "party_id", partyId, "user_id", userId)
			s.publishEvent(ctx, partyId, pubsub.EventMemberLeft, MemberLeft{UserId: userId})
		}
	}
}
