package party

const (
	MessageTypeUser   = "message"
	MessageTypeSystem = "system"
)

type ChatMessage struct {
	UserId    string `redis:"user_id" json:"user_id"`
	Username  string `redis:"username" json:"username"`
	AvatarURL string `redis:"avatar_url" json:"avatar_url"`
	Message   string `redis:"message" json:"message"`
	Type      string `redis:"type" json:"type"`
	SentAt    int64  `redis:"sent_at" json:"sent_at"`
}

type AppendMessageParams struct {
	PartyId   string `json:"party_id"`
	MessageId string `json:"message_id"`
	UserId    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	SentAt    int64  `json:"sent_at"`
	// ClientMsgId dedupes client retries. Empty means no deduplication.
	ClientMsgId string `json:"client_msg_id"`
}

type GetMessageParams struct {
	PartyId   string `json:"party_id"`
	MessageId string `json:"message_id"`
}

type GetMessageIdsParams struct {
	PartyId string `json:"party_id"`
	// Limit bounds the window to the most recent messages. 0 means all.
	Limit int `json:"limit"`
}
