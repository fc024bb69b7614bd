package user

import (
	"encoding/json"
	"net/http"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/users"
)

// SettingsHandler serves the caller's settings, including muted words.
type SettingsHandler struct {
	users *users.Service
}

func NewSettingsHandler(userService *users.Service) *SettingsHandler {
	return &SettingsHandler{users: userService}
}

// HandleGet handles GET /api/users/me/settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.users.GetSettings(r.Context(), middleware.GetUserID(r))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}

// HandleUpdate handles PUT /api/users/me/settings.
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var patch users.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := h.users.UpdateSettings(r.Context(), middleware.GetUserID(r), patch)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}
