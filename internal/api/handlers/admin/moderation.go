// Package admin exposes moderation endpoints. Every handler verifies the
// caller's admin flag before acting.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
)

const maxBodySize = 1 << 20 // 1MB

// ModerationHandler bans users and takes down posts.
type ModerationHandler struct {
	users *users.Service
	posts *posts.Service
}

func NewModerationHandler(userService *users.Service, postService *posts.Service) *ModerationHandler {
	return &ModerationHandler{users: userService, posts: postService}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// HandleBan handles POST /api/admin/users/{handle}/ban.
func (h *ModerationHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req reasonRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	userID, err := h.users.ResolveHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	if err := h.users.Ban(r.Context(), userID, req.Reason); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}

// HandleUnban handles POST /api/admin/users/{handle}/unban.
func (h *ModerationHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	userID, err := h.users.ResolveHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	if err := h.users.Unban(r.Context(), userID); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}

// HandleTakeDown handles POST /api/admin/posts/{id}/takedown.
func (h *ModerationHandler) HandleTakeDown(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req reasonRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.posts.TakeDown(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}

// HandleRestore handles POST /api/admin/posts/{id}/restore.
func (h *ModerationHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.posts.Restore(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}

func (h *ModerationHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if err := h.users.RequireAdmin(r.Context(), middleware.GetUserID(r)); err != nil {
		respond.ServiceError(w, err)
		return false
	}
	return true
}
