package redis

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/server/internal/repository/party"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, slog.Default(), time.Hour), s
}

func TestParty(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetParty(ctx, "missing")
	assert.ErrorIs(t, err, party.ErrPartyNotFound)

	err = r.SetParty(ctx, &party.SetPartyParams{
		PartyId:         "party-1",
		VideoId:         "video-1",
		HostId:          "host-1",
		Title:           "movie night",
		VideoTitle:      "some movie",
		VideoThumbnail:  "thumb.jpg",
		MaxParticipants: 10,
		CreatedAt:       100,
		StartedAt:       100,
	})
	require.NoError(t, err)

	p, err := r.GetParty(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, "video-1", p.VideoId)
	assert.Equal(t, "host-1", p.HostId)
	assert.Equal(t, "movie night", p.Title)
	assert.Equal(t, party.StatusActive, p.Status)
	assert.Equal(t, 10, p.MaxParticipants)
	assert.Equal(t, int64(100), p.CreatedAt)

	status, err := r.GetPartyStatus(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, party.StatusActive, status)

	ids, err := r.GetPartyIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"party-1"}, ids)

	err = r.EndParty(ctx, &party.EndPartyParams{
		PartyId: "party-1",
		EndedAt: 200,
	})
	require.NoError(t, err)

	p, err = r.GetParty(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, party.StatusEnded, p.Status)
	assert.Equal(t, int64(200), p.EndedAt)

	// ended parties drop out of the active index
	ids, err = r.GetPartyIds(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = r.EndParty(ctx, &party.EndPartyParams{PartyId: "missing", EndedAt: 200})
	assert.ErrorIs(t, err, party.ErrPartyNotFound)
}

func TestParticipants(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetParticipant(ctx, &party.GetParticipantParams{PartyId: "party-1", UserId: "user-1"})
	assert.ErrorIs(t, err, party.ErrParticipantNotFound)

	for i := 1; i <= 3; i++ {
		err := r.SetParticipant(ctx, &party.SetParticipantParams{
			PartyId:  "party-1",
			UserId:   fmt.Sprintf("user-%d", i),
			Username: fmt.Sprintf("name-%d", i),
			JoinedAt: int64(100 + i),
			LastSeen: int64(100 + i),
		})
		require.NoError(t, err)
	}

	// roster keeps insertion order
	ids, err := r.GetParticipantIds(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1", "user-2", "user-3"}, ids)

	count, err := r.GetParticipantCount(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// upsert does not duplicate the roster entry
	err = r.SetParticipant(ctx, &party.SetParticipantParams{
		PartyId:  "party-1",
		UserId:   "user-2",
		Username: "renamed",
		JoinedAt: 102,
		LastSeen: 500,
	})
	require.NoError(t, err)

	count, err = r.GetParticipantCount(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	p, err := r.GetParticipant(ctx, &party.GetParticipantParams{PartyId: "party-1", UserId: "user-2"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Username)
	assert.Equal(t, int64(500), p.LastSeen)

	err = r.UpdateParticipantLastSeen(ctx, &party.UpdateParticipantLastSeenParams{
		PartyId:  "party-1",
		UserId:   "user-1",
		LastSeen: 999,
	})
	require.NoError(t, err)

	p, err = r.GetParticipant(ctx, &party.GetParticipantParams{PartyId: "party-1", UserId: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(999), p.LastSeen)

	err = r.UpdateParticipantLastSeen(ctx, &party.UpdateParticipantLastSeenParams{
		PartyId:  "party-1",
		UserId:   "stranger",
		LastSeen: 999,
	})
	assert.ErrorIs(t, err, party.ErrParticipantNotFound)

	err = r.RemoveParticipant(ctx, &party.RemoveParticipantParams{PartyId: "party-1", UserId: "user-2"})
	require.NoError(t, err)

	ids, err = r.GetParticipantIds(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1", "user-3"}, ids)

	err = r.RemoveParticipant(ctx, &party.RemoveParticipantParams{PartyId: "party-1", UserId: "user-2"})
	assert.ErrorIs(t, err, party.ErrParticipantNotFound)

	err = r.RemoveParticipants(ctx, "party-1")
	require.NoError(t, err)

	ids, err = r.GetParticipantIds(ctx, "party-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPlayer(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetPlayer(ctx, "party-1")
	assert.ErrorIs(t, err, party.ErrPlayerNotFound)

	err = r.SetPlayer(ctx, &party.SetPlayerParams{
		PartyId:     "party-1",
		Action:      party.ActionPlay,
		CurrentTime: 42.5,
		Speed:       1,
		UpdatedAt:   1000,
		HostId:      "host-1",
	})
	require.NoError(t, err)

	p, err := r.GetPlayer(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, party.ActionPlay, p.Action)
	assert.Equal(t, 42.5, p.CurrentTime)
	assert.Equal(t, "host-1", p.HostId)

	// last writer wins
	err = r.SetPlayer(ctx, &party.SetPlayerParams{
		PartyId:     "party-1",
		Action:      party.ActionPause,
		CurrentTime: 50,
		Speed:       1,
		UpdatedAt:   2000,
		HostId:      "host-1",
	})
	require.NoError(t, err)

	p, err = r.GetPlayer(ctx, "party-1")
	require.NoError(t, err)
	assert.Equal(t, party.ActionPause, p.Action)
	assert.Equal(t, float64(50), p.CurrentTime)
	assert.Equal(t, int64(2000), p.UpdatedAt)

	err = r.RemovePlayer(ctx, "party-1")
	require.NoError(t, err)

	_, err = r.GetPlayer(ctx, "party-1")
	assert.ErrorIs(t, err, party.ErrPlayerNotFound)
}

func TestChat(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		err := r.AppendMessage(ctx, &party.AppendMessageParams{
			PartyId:   "party-1",
			MessageId: fmt.Sprintf("msg-%d", i),
			UserId:    "user-1",
			Username:  "name-1",
			Message:   fmt.Sprintf("hello %d", i),
			Type:      party.MessageTypeUser,
			SentAt:    int64(1000 + i),
		})
		require.NoError(t, err)
	}

	// full history, insertion order
	ids, err := r.GetMessageIds(ctx, &party.GetMessageIdsParams{PartyId: "party-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-1", "msg-2", "msg-3", "msg-4", "msg-5"}, ids)

	// limited window keeps the most recent tail, still ascending
	ids, err = r.GetMessageIds(ctx, &party.GetMessageIdsParams{PartyId: "party-1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-4", "msg-5"}, ids)

	msg, err := r.GetMessage(ctx, &party.GetMessageParams{PartyId: "party-1", MessageId: "msg-3"})
	require.NoError(t, err)
	assert.Equal(t, "hello 3", msg.Message)
	assert.Equal(t, int64(1003), msg.SentAt)

	_, err = r.GetMessage(ctx, &party.GetMessageParams{PartyId: "party-1", MessageId: "missing"})
	assert.ErrorIs(t, err, party.ErrMessageNotFound)

	err = r.RemoveChat(ctx, "party-1")
	require.NoError(t, err)

	ids, err = r.GetMessageIds(ctx, &party.GetMessageIdsParams{PartyId: "party-1"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestChatDedup(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	params := &party.AppendMessageParams{
		PartyId:     "party-1",
		MessageId:   "msg-1",
		UserId:      "user-1",
		Message:     "hello",
		Type:        party.MessageTypeUser,
		SentAt:      1000,
		ClientMsgId: "client-abc",
	}
	require.NoError(t, r.AppendMessage(ctx, params))

	// retry with the same client id is rejected even under a fresh server id
	retry := *params
	retry.MessageId = "msg-2"
	err := r.AppendMessage(ctx, &retry)
	assert.ErrorIs(t, err, party.ErrDuplicateMessage)

	ids, err := r.GetMessageIds(ctx, &party.GetMessageIdsParams{PartyId: "party-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-1"}, ids)

	// a different client id goes through
	next := *params
	next.MessageId = "msg-3"
	next.ClientMsgId = "client-def"
	require.NoError(t, r.AppendMessage(ctx, &next))

	ids, err = r.GetMessageIds(ctx, &party.GetMessageIdsParams{PartyId: "party-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-1", "msg-3"}, ids)
}

func TestChatDedupRetryAfterFailedAppend(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	// wrong-typed chat key makes the append pipeline fail
	s.Set("party:party-1:chat", "poison")

	params := &party.AppendMessageParams{
		PartyId:     "party-1",
		MessageId:   "msg-1",
		UserId:      "user-1",
		Message:     "hello",
		Type:        party.MessageTypeUser,
		SentAt:      1000,
		ClientMsgId: "client-abc",
	}
	err := r.AppendMessage(ctx, params)
	require.Error(t, err)
	assert.NotErrorIs(t, err, party.ErrDuplicateMessage)

	// a failed append must not burn the client id: the retry has to land
	s.Del("party:party-1:chat")

	retry := *params
	retry.MessageId = "msg-2"
	require.NoError(t, r.AppendMessage(ctx, &retry))

	ids, err := r.GetMessageIds(ctx, &party.GetMessageIdsParams{PartyId: "party-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-2"}, ids)

	// with the message durable, the id is spent
	again := *params
	again.MessageId = "msg-3"
	err = r.AppendMessage(ctx, &again)
	assert.ErrorIs(t, err, party.ErrDuplicateMessage)
}
