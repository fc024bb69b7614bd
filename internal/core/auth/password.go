package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"Wire/internal/core/users"
)

// MinPasswordLength is the signup floor. No composition rules: length and a
// slow hash do the work.
const MinPasswordLength = 8

// ValidatePassword checks the signup password rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return users.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes.
		return users.NewValidationError("password", "password must be at most 72 characters")
	}
	return nil
}

// newSalt returns a random per-user salt. bcrypt already salts internally;
// this extra value peppers the stored record so hashes can't be compared
// across leaked databases using the bcrypt salt alone.
func newSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password, salt string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password, salt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+salt)) == nil
}
