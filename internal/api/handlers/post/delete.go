package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
)

// DeleteHandler removes the caller's own posts.
type DeleteHandler struct {
	posts *posts.Service
}

func NewDeleteHandler(postService *posts.Service) *DeleteHandler {
	return &DeleteHandler{posts: postService}
}

// HandleDelete handles DELETE /api/posts/{id}. Deleting an already
// deleted post succeeds.
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.posts.Delete(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}
