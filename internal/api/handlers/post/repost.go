package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
)

// RepostHandler creates and removes reposts. A second repost of the same
// post is a conflict.
type RepostHandler struct {
	posts *posts.Service
}

func NewRepostHandler(postService *posts.Service) *RepostHandler {
	return &RepostHandler{posts: postService}
}

// HandleRepost handles POST /api/posts/{id}/repost.
func (h *RepostHandler) HandleRepost(w http.ResponseWriter, r *http.Request) {
	created, err := h.posts.Repost(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUnrepost handles DELETE /api/posts/{id}/repost.
func (h *RepostHandler) HandleUnrepost(w http.ResponseWriter, r *http.Request) {
	err := h.posts.Unrepost(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}
