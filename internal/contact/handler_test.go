package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts-api/internal/auth"
)

func newContactHandler() *Handler {
	return NewHandler(newTestService(newFakeStore()))
}

// doJSON issues a request with the owner id attached the way the auth
// middleware would.
func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, ownerID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDContextKey, ownerID))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func createContact(t *testing.T, handler *Handler, ownerID uuid.UUID, body string) *Contact {
	t.Helper()
	rec := doJSON(t, handler.Create, http.MethodPost, "/contacts", ownerID, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	return resp.Data
}

func TestHandler_CreateAndList(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	rec := doJSON(t, handler.Create, http.MethodPost, "/contacts", owner, `{"name":"Anna Lee","phone":"555-1111"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contact added")

	rec = doJSON(t, handler.List, http.MethodGet, "/contacts", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Anna Lee", resp.Data[0].Name)
	assert.NotEmpty(t, resp.Data[0].Color)
}

func TestHandler_CreateValidation(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	rec := doJSON(t, handler.Create, http.MethodPost, "/contacts", owner, `{"phone":"555-1111"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")

	rec = doJSON(t, handler.Create, http.MethodPost, "/contacts", owner, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListFilters(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	createContact(t, handler, owner, `{"name":"Anna Lee","phone":"555-1111"}`)
	createContact(t, handler, owner, `{"name":"Bob","phone":"555-2222","favorite":true}`)

	rec := doJSON(t, handler.List, http.MethodGet, "/contacts?searchTerm=ann", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Anna Lee", resp.Data[0].Name)

	rec = doJSON(t, handler.List, http.MethodGet, "/contacts?filterFavoritesOnly=true", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp = ListResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Bob", resp.Data[0].Name)
}

func TestHandler_Update(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	created := createContact(t, handler, owner, `{"name":"Bob","phone":"555-2222"}`)

	body := fmt.Sprintf(`{"id":%q,"name":"Robert","phone":"555-3333"}`, created.ID)
	rec := doJSON(t, handler.Update, http.MethodPut, "/contacts", owner, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Updated", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Robert", resp.Data.Name)
}

func TestHandler_UpdateNotFound(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	// Unknown id and malformed id both read as not found.
	body := fmt.Sprintf(`{"id":%q,"name":"Robert","phone":"555-3333"}`, uuid.New())
	rec := doJSON(t, handler.Update, http.MethodPut, "/contacts", owner, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contact not found")

	rec = doJSON(t, handler.Update, http.MethodPut, "/contacts", owner, `{"id":"not-a-uuid","name":"Robert","phone":"555-3333"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contact not found")
}

func TestHandler_ToggleFavorite(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	created := createContact(t, handler, owner, `{"name":"Bob","phone":"555-2222"}`)
	require.False(t, created.Favorite)

	body := fmt.Sprintf(`{"id":%q}`, created.ID)
	rec := doJSON(t, handler.ToggleFavorite, http.MethodPatch, "/contacts/favorite", owner, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Favorite toggled", resp.Message)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.Favorite)
}

func TestHandler_Delete(t *testing.T) {
	handler := newContactHandler()
	owner := uuid.New()

	created := createContact(t, handler, owner, `{"name":"Bob","phone":"555-2222"}`)

	body := fmt.Sprintf(`{"id":%q}`, created.ID)
	rec := doJSON(t, handler.Delete, http.MethodDelete, "/contacts", owner, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Deleted")

	rec = doJSON(t, handler.Delete, http.MethodDelete, "/contacts", owner, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contact not found")
}

func TestHandler_CrossTenantMutationIsNotFound(t *testing.T) {
	handler := newContactHandler()
	ownerA := uuid.New()
	ownerB := uuid.New()

	created := createContact(t, handler, ownerA, `{"name":"Bob","phone":"555-2222"}`)

	body := fmt.Sprintf(`{"id":%q}`, created.ID)
	rec := doJSON(t, handler.Delete, http.MethodDelete, "/contacts", ownerB, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still there for its owner.
	rec = doJSON(t, handler.List, http.MethodGet, "/contacts", ownerA, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}
