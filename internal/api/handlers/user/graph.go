package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/users"
)

// GraphHandler serves follow and block edges, addressed by handle.
type GraphHandler struct {
	users *users.Service
}

func NewGraphHandler(userService *users.Service) *GraphHandler {
	return &GraphHandler{users: userService}
}

// HandleFollow handles POST /api/users/{handle}/follow.
func (h *GraphHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.edge(w, r, h.users.Follow)
}

// HandleUnfollow handles DELETE /api/users/{handle}/follow.
func (h *GraphHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.edge(w, r, h.users.Unfollow)
}

// HandleBlock handles POST /api/users/{handle}/block.
func (h *GraphHandler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	h.edge(w, r, h.users.Block)
}

// HandleUnblock handles DELETE /api/users/{handle}/block.
func (h *GraphHandler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	h.edge(w, r, h.users.Unblock)
}

func (h *GraphHandler) edge(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, viewerID, targetID string) error) {
	targetID, err := h.users.ResolveHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	if err := op(r.Context(), middleware.GetUserID(r), targetID); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}
