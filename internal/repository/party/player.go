package party

const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionSeek  = "seek"
)

// Player is the single authoritative playback row of a party.
// Last writer wins, no history is retained.
type Player struct {
	Action      string  `redis:"action" json:"action"`
	CurrentTime float64 `redis:"current_time" json:"current_time"`
	Speed       float64 `redis:"speed" json:"speed"`
	UpdatedAt   int64   `redis:"updated_at" json:"updated_at"`
	HostId      string  `redis:"host_id" json:"host_id"`
}

type SetPlayerParams struct {
	PartyId     string  `json:"party_id"`
	Action      string  `json:"action"`
	CurrentTime float64 `json:"current_time"`
	Speed       float64 `json:"speed"`
	UpdatedAt   int64   `json:"updated_at"`
	HostId      string  `json:"host_id"`
}
