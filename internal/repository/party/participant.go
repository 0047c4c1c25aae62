package party

type Participant struct {
	Username  string `redis:"username" json:"username"`
	AvatarURL string `redis:"avatar_url" json:"avatar_url"`
	JoinedAt  int64  `redis:"joined_at" json:"joined_at"`
	LastSeen  int64  `redis:"last_seen" json:"last_seen"`
}

type SetParticipantParams struct {
	PartyId   string `json:"party_id"`
	UserId    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	JoinedAt  int64  `json:"joined_at"`
	LastSeen  int64  `json:"last_seen"`
}

type GetParticipantParams struct {
	PartyId string `json:"party_id"`
	UserId  string `json:"user_id"`
}

type RemoveParticipantParams struct {
	PartyId string `json:"party_id"`
	UserId  string `json:"user_id"`
}

type UpdateParticipantLastSeenParams struct {
	PartyId  string `json:"party_id"`
	UserId   string `json:"user_id"`
	LastSeen int64  `json:"last_seen"`
}
