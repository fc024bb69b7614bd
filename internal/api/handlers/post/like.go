package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
)

// LikeHandler toggles likes. Both directions are idempotent.
type LikeHandler struct {
	posts *posts.Service
}

func NewLikeHandler(postService *posts.Service) *LikeHandler {
	return &LikeHandler{posts: postService}
}

type likeResponse struct {
	LikeCount int `json:"likeCount"`
}

// HandleLike handles POST /api/posts/{id}/like.
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	count, err := h.posts.Like(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, likeResponse{LikeCount: count})
}

// HandleUnlike handles DELETE /api/posts/{id}/like.
func (h *LikeHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	count, err := h.posts.Unlike(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, likeResponse{LikeCount: count})
}
