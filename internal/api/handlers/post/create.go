// Package post exposes the post endpoints: create, read, thread, replies,
// delete, like and repost.
package post

import (
	"encoding/json"
	"net/http"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
)

const maxBodySize = 1 << 20 // 1MB

// CreateHandler publishes new posts, replies and quotes.
type CreateHandler struct {
	posts *posts.Service
}

func NewCreateHandler(postService *posts.Service) *CreateHandler {
	return &CreateHandler{posts: postService}
}

// HandleCreate handles POST /api/posts.
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req posts.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.posts.Create(r.Context(), middleware.GetUserID(r), req)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}
