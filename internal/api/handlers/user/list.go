package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/users"
)

// ListHandler serves the follower/following/blocked listings, hydrated
// from the profile cache.
type ListHandler struct {
	users        *users.Service
	defaultLimit int
	maxLimit     int
}

func NewListHandler(userService *users.Service, defaultLimit, maxLimit int) *ListHandler {
	return &ListHandler{users: userService, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleFollowers handles GET /api/users/{handle}/followers.
func (h *ListHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	h.byHandle(w, r, h.users.ListFollowers)
}

// HandleFollowing handles GET /api/users/{handle}/following.
func (h *ListHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	h.byHandle(w, r, h.users.ListFollowing)
}

// HandleBlocked handles GET /api/users/me/blocked. The block list is only
// visible to its owner.
func (h *ListHandler) HandleBlocked(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, h.defaultLimit, h.maxLimit)
	profiles, err := h.users.ListBlocked(r.Context(), middleware.GetUserID(r), limit, offset)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, profiles)
}

func (h *ListHandler) byHandle(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID string, limit, offset int) ([]users.Profile, error)) {
	userID, err := h.users.ResolveHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	limit, offset := pageParams(r, h.defaultLimit, h.maxLimit)
	profiles, err := list(r.Context(), userID, limit, offset)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, profiles)
}
