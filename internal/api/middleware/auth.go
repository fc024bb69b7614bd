// Package middleware holds the request-level concerns shared across
// handlers: bearer auth, rate limiting and request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"Wire/internal/api/respond"
	"Wire/internal/core/auth"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	claimsKey contextKey = "claims"
)

// Auth validates bearer tokens and injects the caller's identity into the
// request context.
type Auth struct {
	tokens *auth.TokenManager
}

func NewAuth(tokens *auth.TokenManager) *Auth {
	return &Auth{tokens: tokens}
}

// Require rejects requests without a valid bearer token with 401.
func (m *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.parse(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
	})
}

// Optional injects identity when a valid token is present and passes
// anonymous requests through untouched. Endpoints that personalize public
// data (viewer filters on the global feed) use this.
func (m *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := m.parse(r); ok {
			r = r.WithContext(withIdentity(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Auth) parse(r *http.Request) (*auth.Claims, bool) {
	token := BearerToken(r)
	if token == "" {
		return nil, false
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func withIdentity(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.Subject)
	return context.WithValue(ctx, claimsKey, claims)
}

// BearerToken extracts the raw token from the Authorization header, or ""
// if the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// GetUserID returns the authenticated caller's user id, or "" for
// anonymous requests.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// GetClaims returns the verified token claims, or nil for anonymous
// requests.
func GetClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}
