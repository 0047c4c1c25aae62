package party

type Party struct {
	Id              string `json:"id"`
	VideoId         string `json:"video_id"`
	HostId          string `json:"host_id"`
	Title           string `json:"title"`
	VideoTitle      string `json:"video_title"`
	VideoThumbnail  string `json:"video_thumbnail"`
	Status          string `json:"status"`
	MaxParticipants int    `json:"max_participants"`
	CreatedAt       int64  `json:"created_at"`
	StartedAt       int64  `json:"started_at"`
	EndedAt         int64  `json:"ended_at,omitempty"`
}

type Participant struct {
	UserId    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	JoinedAt  int64  `json:"joined_at"`
	LastSeen  int64  `json:"last_seen"`
	IsActive  bool   `json:"is_active"`
}

// PlaybackState is the host-authoritative transport state. Timestamp is the
// authority's wall clock in unix milliseconds, readers resolve their local
// divergence against it.
type PlaybackState struct {
	Action      string  `json:"action"`
	CurrentTime float64 `json:"current_time"`
	Speed       float64 `json:"speed"`
	Timestamp   int64   `json:"timestamp"`
	HostId      string  `json:"host_id"`
}

type ChatMessage struct {
	Id        string `json:"id"`
	UserId    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type MemberLeft struct {
	UserId string `json:"user_id"`
}

type PartyEnded struct {
	PartyId string `json:"party_id"`
	EndedAt int64  `json:"ended_at"`
}
