package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RequireAuth(t *testing.T) {
	tokens, err := NewJWTService("test-secret")
	require.NoError(t, err)
	middleware := NewMiddleware(tokens)

	userID := uuid.New()
	var gotUserID uuid.UUID
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	token, err := tokens.CreateToken(userID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, nextCalled)
	assert.Equal(t, userID, gotUserID)
}

func TestMiddleware_MissingToken(t *testing.T) {
	tokens, err := NewJWTService("test-secret")
	require.NoError(t, err)
	middleware := NewMiddleware(tokens)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		middleware.RequireAuth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "No token found", body["message"])
	}
}

func TestMiddleware_InvalidOrExpiredToken(t *testing.T) {
	tokens, err := NewJWTService("test-secret")
	require.NoError(t, err)
	middleware := NewMiddleware(tokens)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	expired, err := tokens.CreateToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "not-a-token",
		"expired": expired,
	} {
		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		middleware.RequireAuth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Token invalid or expired", body["message"], name)
	}
}
