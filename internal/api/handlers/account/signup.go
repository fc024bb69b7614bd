// Package account exposes the auth endpoints: signup, login, refresh,
// logout, me and password reset.
package account

import (
	"encoding/json"
	"net/http"

	"Wire/internal/api/respond"
	"Wire/internal/core/auth"
)

const maxBodySize = 1 << 20 // 1MB

// SignupHandler registers new accounts.
type SignupHandler struct {
	service *auth.Service
}

func NewSignupHandler(service *auth.Service) *SignupHandler {
	return &SignupHandler{service: service}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Handle   string `json:"handle"`
}

// HandleSignup handles POST /api/auth/signup.
func (h *SignupHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.service.Signup(r.Context(), req.Email, req.Password, req.Handle)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, session)
}
