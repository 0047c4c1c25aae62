package party

const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

type Party struct {
	VideoId         string `redis:"video_id" json:"video_id"`
	HostId          string `redis:"host_id" json:"host_id"`
	Title           string `redis:"title" json:"title"`
	VideoTitle      string `redis:"video_title" json:"video_title"`
	VideoThumbnail  string `redis:"video_thumbnail" json:"video_thumbnail"`
	Status          string `redis:"status" json:"status"`
	MaxParticipants int    `redis:"max_participants" json:"max_participants"`
	CreatedAt       int64  `redis:"created_at" json:"created_at"`
	StartedAt       int64  `redis:"started_at" json:"started_at"`
	EndedAt         int64  `redis:"ended_at" json:"ended_at"`
}

type SetPartyParams struct {
	PartyId         string `json:"party_id"`
	VideoId         string `json:"video_id"`
	HostId          string `json:"host_id"`
	Title           string `json:"title"`
	VideoTitle      string `json:"video_title"`
	VideoThumbnail  string `json:"video_thumbnail"`
	MaxParticipants int    `json:"max_participants"`
	CreatedAt       int64  `json:"created_at"`
	StartedAt       int64  `json:"started_at"`
}

type EndPartyParams struct {
	PartyId string `json:"party_id"`
	EndedAt int64  `json:"ended_at"`
}
