package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/users"
)

// ProfileHandler serves public profiles and the caller's own profile.
type ProfileHandler struct {
	users *users.Service
}

func NewProfileHandler(userService *users.Service) *ProfileHandler {
	return &ProfileHandler{users: userService}
}

// HandleGet handles GET /api/users/{handle}.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfileByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, profile)
}

// HandleGetMe handles GET /api/users/me.
func (h *ProfileHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), middleware.GetUserID(r))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, profile)
}

// HandleUpdateMe handles PUT /api/users/me. Absent fields are left
// unchanged.
func (h *ProfileHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var patch users.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), middleware.GetUserID(r), patch)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, profile)
}
