package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/isdelr/slowmind-be/internal/services"
)

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateProfilePayload defines the structure for profile updates.
type UpdateProfilePayload struct {
	Username    string                  `json:"username"`
	Bio         string                  `json:"bio"`
	Preferences models.PreferencesPatch `json:"preferences"`
}

// GetMe returns the authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update replaces the profile of the authenticated user. Users may only
// update themselves.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if id != userID {
		writeError(w, r, services.ErrForbidden)
		return
	}

	var payload UpdateProfilePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), id, payload.Username, payload.Bio, payload.Preferences)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetReminder returns the next firing of the user's daily reminder.
func (h *UserHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	reminder, err := h.service.NextReminder(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}
