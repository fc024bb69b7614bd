package account

import (
	"encoding/json"
	"net/http"

	"Wire/internal/api/respond"
	"Wire/internal/core/auth"
)

// LoginHandler exchanges credentials for a session.
type LoginHandler struct {
	service *auth.Service
}

func NewLoginHandler(service *auth.Service) *LoginHandler {
	return &LoginHandler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, session)
}

// HandleLogout handles POST /api/auth/logout. Tokens are stateless, so
// logout is a client-side discard; the endpoint exists for the envelope.
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	respond.Empty(w, http.StatusOK)
}
