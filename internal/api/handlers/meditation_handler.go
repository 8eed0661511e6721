package handlers

import (
	"net/http"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/isdelr/slowmind-be/internal/services"
	"github.com/rs/zerolog/log"
)

// MeditationHandler handles HTTP requests for meditation sessions.
type MeditationHandler struct {
	service services.MeditationServiceProvider
}

// NewMeditationHandler creates a new MeditationHandler.
func NewMeditationHandler(service services.MeditationServiceProvider) *MeditationHandler {
	return &MeditationHandler{service: service}
}

// CreateSessionPayload defines the structure for recording a session.
type CreateSessionPayload struct {
	Duration *float64 `json:"duration"`
	Type     *string  `json:"type"`
	Notes    *string  `json:"notes"`
}

// SessionResponse is returned after recording a session.
type SessionResponse struct {
	Message string                   `json:"message"`
	Session models.MeditationSession `json:"session"`
}

// Create records a completed session for the caller.
func (h *MeditationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var payload CreateSessionPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Duration == nil {
		writeError(w, r, services.ErrInvalidDuration)
		return
	}

	session, err := h.service.Record(r.Context(), userID, *payload.Duration, payload.Type, payload.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Debug().Int64("user_id", userID).Int64("session_id", session.ID).Msg("Meditation session recorded")
	writeJSON(w, http.StatusCreated, SessionResponse{Message: "Meditation session saved", Session: session})
}

// GetAll lists the caller's sessions, newest first.
func (h *MeditationHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.ListFor(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSummary returns the caller's dashboard totals.
func (h *MeditationHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Delete removes one of the caller's sessions.
func (h *MeditationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	removed, err := h.service.Remove(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeMessage(w, http.StatusNotFound, "Session not found")
		return
	}
	writeMessage(w, http.StatusOK, "Session deleted")
}
