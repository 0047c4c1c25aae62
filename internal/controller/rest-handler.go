package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/watchparty/server/internal/service/party"
	"github.com/watchparty/server/pkg/rest"
)

type createPartyInput struct {
	VideoId string `json:"video_id" validate:"required"`
	Title   string `json:"title" validate:"max=100"`
}

func (c controller) createParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.partyService.CreateParty(r.Context(), &party.CreatePartyParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		VideoId:     req.VideoId,
		Title:       req.Title,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": map[string]any{
		"party_id": resp.PartyId,
		"party":    resp.Party,
	}})
}

func (c controller) getParty(w http.ResponseWriter, r *http.Request) {
	resp, err := c.partyService.GetParty(r.Context(), chi.URLParam(r, "party-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"party":        resp.Party,
		"participants": resp.Participants,
		"player":       resp.Player,
	}})
}

func (c controller) joinParty(w http.ResponseWriter, r *http.Request) {
	resp, err := c.partyService.JoinParty(r.Context(), &party.JoinPartyParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"participant":  resp.Participant,
		"participants": resp.Participants,
	}})
}

func (c controller) leaveParty(w http.ResponseWriter, r *http.Request) {
	if err := c.partyService.LeaveParty(r.Context(), &party.LeavePartyParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
	}); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{})
}

func (c controller) heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := c.partyService.Heartbeat(r.Context(), &party.HeartbeatParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
	}); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{})
}

type invitePartyInput struct {
	InviteeIds []string `json:"invitee_ids" validate:"required,min=1,max=50,dive,required"`
}

func (c controller) inviteParticipants(w http.ResponseWriter, r *http.Request) {
	var req invitePartyInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.partyService.InviteParticipants(r.Context(), &party.InviteParticipantsParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
		InviteeIds:  req.InviteeIds,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"invited_count": resp.InvitedCount,
	}})
}

func (c controller) endParty(w http.ResponseWriter, r *http.Request) {
	if err := c.partyService.EndParty(r.Context(), &party.EndPartyParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
	}); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{})
}

type pushStateInput struct {
	Action      string  `json:"action" validate:"required,oneof=play pause seek"`
	CurrentTime float64 `json:"current_time" validate:"gte=0"`
	Speed       float64 `json:"speed" validate:"gte=0,max=4"`
}

func (c controller) pushState(w http.ResponseWriter, r *http.Request) {
	var req pushStateInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.partyService.PushState(r.Context(), &party.PushStateParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
		Action:      req.Action,
		CurrentTime: req.CurrentTime,
		Speed:       req.Speed,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"state": resp.State,
	}})
}

func (c controller) getPlayerState(w http.ResponseWriter, r *http.Request) {
	state, err := c.partyService.GetPlayerState(r.Context(), chi.URLParam(r, "party-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"state": state,
	}})
}

type postMessageInput struct {
	Message     string `json:"message" validate:"required,max=2000"`
	ClientMsgId string `json:"client_msg_id" validate:"max=64"`
}

func (c controller) postMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.partyService.PostMessage(r.Context(), &party.PostMessageParams{
		RequesterId: c.getUserIdFromCtx(r.Context()),
		PartyId:     chi.URLParam(r, "party-id"),
		Message:     req.Message,
		ClientMsgId: req.ClientMsgId,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	if resp.Duplicate {
		rest.WriteJSON(w, http.StatusOK, rest.Envelope{})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": map[string]any{
		"message": resp.Message,
	}})
}

func (c controller) chatHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	resp, err := c.partyService.ChatHistory(r.Context(), &party.ChatHistoryParams{
		PartyId: chi.URLParam(r, "party-id"),
		Limit:   limit,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"messages": resp.Messages,
	}})
}
