package account

import (
	"encoding/json"
	"net/http"

	"Wire/internal/api/respond"
	"Wire/internal/core/auth"
)

// ResetHandler serves the password reset flow. Request is intentionally
// silent about unknown addresses.
type ResetHandler struct {
	service *auth.Service
}

func NewResetHandler(service *auth.Service) *ResetHandler {
	return &ResetHandler{service: service}
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleRequest handles POST /api/auth/reset/request.
func (h *ResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RequestReset(r.Context(), req.Email); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}

// HandleConfirm handles POST /api/auth/reset/confirm.
func (h *ResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req resetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ConfirmReset(r.Context(), req.Token, req.Password); err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.Empty(w, http.StatusOK)
}
