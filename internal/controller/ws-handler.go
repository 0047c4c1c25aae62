package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/pubsub"
	"github.com/watchparty/server/internal/service/party"
	"github.com/watchparty/server/pkg/rest"
)

const (
	wsWriteTimeout = 10 * time.Second

	// closePartyEnded is sent when the host ends the party while the
	// subscriber is still connected.
	closePartyEnded = 4000
)

// Output is the frame written to websocket subscribers. Payload carries the
// event body verbatim as published on the bus.
type Output struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Input is the only frame subscribers are expected to send. ALIVE frames
// double as presence heartbeats so a websocket client does not need a
// parallel REST heartbeat loop.
type Input struct {
	Type string `json:"type"`
}

func (c controller) subscribeParty(w http.ResponseWriter, r *http.Request) {
	partyId := chi.URLParam(r, "party-id")
	userId := c.getUserIdFromCtx(r.Context())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before reading the snapshot so nothing published in between
	// is missed; clients dedupe the overlap by message id. Failures before
	// the upgrade map to plain HTTP statuses instead of an opaque close
	// frame.
	events, err := c.partyService.Subscribe(ctx, partyId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	snapshot, err := c.partyService.GetParty(ctx, partyId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	history, err := c.partyService.ChatHistory(ctx, &party.ChatHistoryParams{
		PartyId: partyId,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	if err := c.writeOutput(conn, "PARTY_SNAPSHOT", rest.Envelope{
		"party":        snapshot.Party,
		"participants": snapshot.Participants,
		"player":       snapshot.Player,
		"messages":     history.Messages,
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to write snapshot", "error", err)
		return
	}

	go c.readLoop(ctx, cancel, conn, partyId, userId)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(Output{Type: ev.Type, Payload: ev.Payload}); err != nil {
				c.logger.DebugContext(ctx, "failed to write event", "error", err)
				return
			}

			if ev.Type == pubsub.EventPartyEnded {
				msg := websocket.FormatCloseMessage(closePartyEnded, "party ended")
				conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
				return
			}
		}
	}
}

// readLoop drains client frames. ALIVE frames refresh presence; anything
// else is ignored. The loop cancels the subscription when the peer closes.
func (c controller) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, partyId, userId string) {
	defer cancel()

	for {
		var in Input
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		if in.Type != "ALIVE" {
			continue
		}

		if err := c.partyService.Heartbeat(ctx, &party.HeartbeatParams{
			RequesterId: userId,
			PartyId:     partyId,
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to refresh presence", "error", err)
		}
	}
}

func (c controller) writeOutput(conn *websocket.Conn, outputType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(Output{Type: outputType, Payload: raw})
}
