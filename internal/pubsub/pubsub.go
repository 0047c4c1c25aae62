package pubsub

import "encoding/json"

const (
	EventPlayerUpdated = "PLAYER_UPDATED"
	EventChatMessage   = "CHAT_MESSAGE"
	EventMemberJoined  = "MEMBER_JOINED"
	EventMemberLeft    = "MEMBER_LEFT"
	EventPartyEnded    = "PARTY_ENDED"
)

// Event is the envelope delivered to every party subscriber. Delivery is
// at-least-once and each payload carries its own timestamps, so consumers
// detect staleness themselves.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
