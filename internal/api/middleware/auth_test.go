package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/core/auth"
)

func echoUserID(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(GetUserID(r)))
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := NewAuth(tokens).Require(http.HandlerFunc(echoUserID))

	token, _, err := tokens.Generate("u1", "a@b.com", "alice")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "u1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := NewAuth(tokens).Optional(http.HandlerFunc(echoUserID))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code, "anonymous passes through")
	assert.Empty(t, w.Body.String())

	token, _, err := tokens.Generate("u1", "a@b.com", "alice")
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, "u1", w.Body.String())
}

func TestGetClaims(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, _, err := tokens.Generate("u1", "a@b.com", "alice")
	require.NoError(t, err)

	var claims *auth.Claims
	handler := NewAuth(tokens).Require(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		claims = GetClaims(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, claims)
	assert.Equal(t, "alice", claims.Handle)
}
