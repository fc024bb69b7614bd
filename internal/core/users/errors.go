package users

import (
	"errors"
	"fmt"
)

// Sentinel errors for user operations.
var (
	// ErrNotFound is returned when the addressed user doesn't exist.
	ErrNotFound = errors.New("user not found")

	// ErrHandleTaken is returned when the handle is already registered.
	ErrHandleTaken = errors.New("handle already taken")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrBanned is returned when a banned account attempts a write.
	ErrBanned = errors.New("account is banned")

	// ErrBlocked is returned when the target user has blocked the caller.
	ErrBlocked = errors.New("blocked by user")

	// ErrNotAdmin is returned when an admin-only operation is attempted
	// without the admin flag.
	ErrNotAdmin = errors.New("admin privileges required")
)

// ValidationError carries field context for a 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if err is a validation error.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
