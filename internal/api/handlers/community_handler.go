package handlers

import (
	"net/http"

	"github.com/isdelr/slowmind-be/internal/services"
)

// CommunityHandler handles HTTP requests for the community board.
type CommunityHandler struct {
	service services.CommunityServiceProvider
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(service services.CommunityServiceProvider) *CommunityHandler {
	return &CommunityHandler{service: service}
}

// ContentPayload carries the text of a post or comment.
type ContentPayload struct {
	Content string `json:"content"`
}

// GetAll lists posts newest first with their comments.
func (h *CommunityHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Create publishes a new post by the caller.
func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var payload ContentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	post, err := h.service.CreatePost(r.Context(), userID, payload.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// Like adds one like to a post.
func (h *CommunityHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	liked, err := h.service.Like(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !liked {
		writeError(w, r, services.ErrPostNotFound)
		return
	}
	writeMessage(w, http.StatusOK, "Post liked")
}

// GetComments lists the comments of a post oldest first.
func (h *CommunityHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Comment adds a comment by the caller to a post.
func (h *CommunityHandler) Comment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var payload ContentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	comment, err := h.service.Comment(r.Context(), id, userID, payload.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
