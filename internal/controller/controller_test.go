package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/service/party"
)

const testSecret = "test-secret"

type stubService struct {
	createResp party.CreatePartyResponse
	err        error
	requester  string
	calls      []string
	events     chan pubsub.Event
}

func (s *stubService) CreateParty(ctx context.Context, params *party.CreatePartyParams) (party.CreatePartyResponse, error) {
	s.requester = params.RequesterId
	return s.createResp, s.err
}

func (s *stubService) EndParty(ctx context.Context, params *party.EndPartyParams) error {
	return s.err
}

func (s *stubService) GetParty(ctx context.Context, partyId string) (party.GetPartyResponse, error) {
	s.calls = append(s.calls, "GetParty")
	return party.GetPartyResponse{}, s.err
}

func (s *stubService) JoinParty(ctx context.Context, params *party.JoinPartyParams) (party.JoinPartyResponse, error) {
	return party.JoinPartyResponse{}, s.err
}

func (s *stubService) LeaveParty(ctx context.Context, params *party.LeavePartyParams) error {
	return s.err
}

func (s *stubService) Heartbeat(ctx context.Context, params *party.HeartbeatParams) error {
	return s.err
}

func (s *stubService) InviteParticipants(ctx context.Context, params *party.InviteParticipantsParams) (party.InviteParticipantsResponse, error) {
	return party.InviteParticipantsResponse{}, s.err
}

func (s *stubService) PushState(ctx context.Context, params *party.PushStateParams) (party.PushStateResponse, error) {
	return party.PushStateResponse{}, s.err
}

func (s *stubService) GetPlayerState(ctx context.Context, partyId string) (party.PlaybackState, error) {
	return party.PlaybackState{}, s.err
}

func (s *stubService) PostMessage(ctx context.Context, params *party.PostMessageParams) (party.PostMessageResponse, error) {
	return party.PostMessageResponse{}, s.err
}

func (s *stubService) ChatHistory(ctx context.Context, params *party.ChatHistoryParams) (party.ChatHistoryResponse, error) {
	s.calls = append(s.calls, "ChatHistory")
	return party.ChatHistoryResponse{}, s.err
}

func (s *stubService) Subscribe(ctx context.Context, partyId string) (<-chan pubsub.Event, error) {
	s.calls = append(s.calls, "Subscribe")
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func signToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T, svc *stubService) *httptest.Server {
	t.Helper()

	c := NewController(svc, slog.Default(), &Config{Secret: testSecret})
	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuth(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/party", "", map[string]string{"video_id": "v"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/party", "not-a-jwt", map[string]string{"video_id": "v"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// tokens signed with another secret are rejected
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"})
	forged, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/party", forged, map[string]string{"video_id": "v"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/party", signToken(t, "user-1"), map[string]string{"video_id": "v"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// the requester identity comes from the verified token subject
	assert.Equal(t, "user-1", svc.requester)
}

func TestCreatePartyValidation(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	token := signToken(t, "user-1")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/party", token, map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/party", token, map[string]any{
		"video_id": "v",
		"unknown":  true,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPushStateValidation(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	token := signToken(t, "user-1")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/party/p1/playback", token, map[string]any{
		"action":       "rewind",
		"current_time": 10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/party/p1/playback", token, map[string]any{
		"action":       "play",
		"current_time": -1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	token := signToken(t, "user-1")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"party not found", party.ErrPartyNotFound, http.StatusNotFound},
		{"video not found", party.ErrVideoNotFound, http.StatusNotFound},
		{"user not found", party.ErrUserNotFound, http.StatusNotFound},
		{"permission denied", party.ErrPermissionDenied, http.StatusForbidden},
		{"not a participant", party.ErrNotParticipant, http.StatusForbidden},
		{"party ended", party.ErrPartyEnded, http.StatusGone},
		{"party full", party.ErrPartyFull, http.StatusConflict},
		{"empty message", party.ErrEmptyMessage, http.StatusUnprocessableEntity},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{err: tt.err})

			resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/party/p1/join", token, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSubscribeBeforeSnapshot(t *testing.T) {
	svc := &stubService{events: make(chan pubsub.Event, 1)}
	srv := newTestServer(t, svc)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/party/p1/ws?token=" + signToken(t, "user-1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var out Output
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "PARTY_SNAPSHOT", out.Type)

	// the stream is attached before the snapshot reads, so nothing published
	// in between can be lost
	assert.Equal(t, []string{"Subscribe", "GetParty", "ChatHistory"}, svc.calls)

	svc.events <- pubsub.Event{Type: pubsub.EventChatMessage, Payload: []byte(`{}`)}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, pubsub.EventChatMessage, out.Type)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
