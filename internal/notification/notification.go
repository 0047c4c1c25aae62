package notification

// Invite is the payload pushed to an invitee's external notification inbox.
type Invite struct {
	InviteeId      string `json:"invitee_id"`
	PartyId        string `json:"party_id"`
	HostId         string `json:"host_id"`
	HostName       string `json:"host_name"`
	Title          string `json:"title"`
	VideoTitle     string `json:"video_title"`
	VideoThumbnail string `json:"video_thumbnail"`
	JoinLink       string `json:"join_link"`
	InvitedAt      int64  `json:"invited_at"`
}
