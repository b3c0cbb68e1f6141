package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *fakeUserStore) {
	t.Helper()
	store := newFakeUserStore()
	return NewHandler(newTestService(t, store, nil, nil)), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandler_Register(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register", `{"name":"Ann","email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ann", resp.User.Name)
	assert.Equal(t, "a@x.com", resp.User.Email)
	// The password hash must never appear on the wire.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandler_RegisterDuplicate(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register", `{"name":"Ann","email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Register, "/auth/register", `{"name":"Ann Again","email":"a@x.com","password":"pw2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email in use")
}

func TestHandler_RegisterValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register", `{"email":"a@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, handler.Register, "/auth/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Login(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register", `{"name":"Ann","email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Login, "/auth/login", `{"email":"a@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, handler.Login, "/auth/login", `{"email":"a@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = postJSON(t, handler.Login, "/auth/login", `{"email":"nobody@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestHandler_Me(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.Register, "/auth/register", `{"name":"Ann","email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	rec = httptest.NewRecorder()
	handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@x.com")
}

func TestHandler_MeUnauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No token found")

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	handler.Me(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token invalid or expired")
}

func TestHandler_GoogleVerify(t *testing.T) {
	store := newFakeUserStore()
	idVerifier := &fakeVerifier{identity: &Identity{Email: "ann@gmail.com", Name: "Ann"}}
	handler := NewHandler(newTestService(t, store, idVerifier, nil))

	// First sign-in creates the account.
	rec := postJSON(t, handler.GoogleVerify, "/auth/google/verify", `{"idToken":"tok"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsNewUser)

	// Second sign-in logs the same account in.
	rec = postJSON(t, handler.GoogleVerify, "/auth/google/verify", `{"idToken":"tok"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var again AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.False(t, again.IsNewUser)
	assert.Equal(t, resp.User.ID, again.User.ID)
}

func TestHandler_GoogleVerifyInvalidAssertion(t *testing.T) {
	store := newFakeUserStore()
	idVerifier := &fakeVerifier{err: ErrInvalidAssertion}
	handler := NewHandler(newTestService(t, store, idVerifier, nil))

	rec := postJSON(t, handler.GoogleVerify, "/auth/google/verify", `{"idToken":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid Google token")
}
