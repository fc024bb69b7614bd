package users

import (
	"regexp"
	"strings"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,15}$`)

// reservedHandles cannot be registered; they collide with routes, support
// addresses or common impersonation targets.
var reservedHandles = map[string]bool{
	"admin": true, "administrator": true, "root": true, "api": true,
	"www": true, "support": true, "help": true, "about": true,
	"wire": true, "thewire": true, "mod": true, "moderator": true,
	"system": true, "null": true, "undefined": true, "me": true,
	"settings": true, "home": true, "explore": true,
}

// NormalizeHandle lowercases and trims a handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// ValidateHandle checks the registration rules: 3-15 chars of [a-z0-9_],
// not starting with an underscore, not reserved. Expects a normalized
// handle.
func ValidateHandle(handle string) error {
	if !handlePattern.MatchString(handle) {
		return NewValidationError("handle", "handle must be 3-15 characters of a-z, 0-9 or _")
	}
	if strings.HasPrefix(handle, "_") {
		return NewValidationError("handle", "handle must not start with an underscore")
	}
	if reservedHandles[handle] {
		return NewValidationError("handle", "this handle is reserved")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail performs shape-level validation; deliverability is an
// external concern.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return NewValidationError("email", "invalid email address")
	}
	return nil
}

// MaxBioLength bounds the profile bio.
const MaxBioLength = 160

// ValidateProfilePatch checks field limits on a profile update.
func ValidateProfilePatch(patch ProfilePatch) error {
	if patch.Bio != nil && len([]rune(*patch.Bio)) > MaxBioLength {
		return NewValidationError("bio", "bio must be at most 160 characters")
	}
	if patch.Website != nil && *patch.Website != "" &&
		!strings.HasPrefix(*patch.Website, "http://") && !strings.HasPrefix(*patch.Website, "https://") {
		return NewValidationError("website", "website must be an http(s) URL")
	}
	return nil
}
