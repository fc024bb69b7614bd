package account

import (
	"net/http"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/auth"
)

// SessionHandler serves refresh and me for already-authenticated callers.
type SessionHandler struct {
	service *auth.Service
}

func NewSessionHandler(service *auth.Service) *SessionHandler {
	return &SessionHandler{service: service}
}

// HandleRefresh handles POST /api/auth/refresh. It re-verifies the
// presented token itself rather than relying on auth middleware, so the
// service can re-check the ban flag before reissuing.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		respond.Error(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return
	}

	session, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, session)
}

// HandleMe handles GET /api/auth/me.
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Me(r.Context(), middleware.GetUserID(r))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, profile)
}
