package party

import "errors"

var (
	ErrPartyNotFound       = errors.New("party not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrMessageNotFound     = errors.New("chat message not found")
	ErrDuplicateMessage    = errors.New("duplicate chat message")
)
