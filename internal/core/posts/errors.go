package posts

import (
	"errors"
	"fmt"
)

// Sentinel errors for post operations.
var (
	// ErrNotFound is returned when the addressed post doesn't exist.
	ErrNotFound = errors.New("post not found")

	// ErrAlreadyReposted is returned on a second repost of the same post
	// by the same user.
	ErrAlreadyReposted = errors.New("post already reposted")

	// ErrNotAuthor is returned when a user tries to delete someone else's
	// post.
	ErrNotAuthor = errors.New("not the author of this post")

	// ErrDeleted is returned when engaging with a deleted or taken-down
	// post.
	ErrDeleted = errors.New("post has been deleted")
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
