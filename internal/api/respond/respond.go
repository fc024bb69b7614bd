// Package respond writes the JSON envelope shared by every endpoint:
// {"success": true, "data": ...} or {"success": false, "error": "..."}.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Wire/internal/core/auth"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope with the given payload.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// Empty writes a success envelope with no payload.
func Empty(w http.ResponseWriter, status int) {
	write(w, status, envelope{Success: true})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Success: false, Error: message})
}

// ServiceError maps a service-layer error onto a status code and writes it.
// Unrecognized errors become an opaque 500.
func ServiceError(w http.ResponseWriter, err error) {
	switch {
	case users.IsValidationError(err), posts.IsValidationError(err),
		errors.Is(err, auth.ErrInvalidResetToken):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, users.ErrBanned), errors.Is(err, users.ErrBlocked),
		errors.Is(err, users.ErrNotAdmin), errors.Is(err, posts.ErrNotAuthor):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, users.ErrNotFound), errors.Is(err, posts.ErrNotFound),
		errors.Is(err, posts.ErrDeleted):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, users.ErrHandleTaken), errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, posts.ErrAlreadyReposted):
		Error(w, http.StatusConflict, err.Error())
	default:
		slog.Error("unhandled service error", "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
