package controller

import (
	"errors"
	"net/http"

	"github.com/watchparty/server/internal/service/party"
	"github.com/watchparty/server/pkg/rest"
)

func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int

	switch {
	case errors.Is(err, party.ErrPartyNotFound),
		errors.Is(err, party.ErrVideoNotFound),
		errors.Is(err, party.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, party.ErrPermissionDenied),
		errors.Is(err, party.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, party.ErrPartyEnded):
		status = http.StatusGone
	case errors.Is(err, party.ErrPartyFull):
		status = http.StatusConflict
	case errors.Is(err, party.ErrEmptyMessage),
		errors.Is(err, party.ErrInvalidAction):
		status = http.StatusUnprocessableEntity
	default:
		c.logger.ErrorContext(r.Context(), "internal error", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": err.Error()})
}
