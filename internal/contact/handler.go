package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"contacts-api/internal/auth"
	"contacts-api/internal/httputil"
	"contacts-api/internal/logging"
)

// Handler contains HTTP handlers for the contact directory. All routes sit
// behind the auth middleware, which guarantees a user id in the context.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ContactRequest represents the create/update request body. ID is only used
// by update, toggle and delete.
type ContactRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Favorite bool   `json:"favorite"`
}

// ListResponse wraps the contact list
type ListResponse struct {
	Data []*Contact `json:"data"`
}

// MutationResponse wraps a single mutated contact
type MutationResponse struct {
	Message string   `json:"message"`
	Data    *Contact `json:"data,omitempty"`
}

func (r *ContactRequest) fields() Fields {
	return Fields{
		Name:     r.Name,
		Phone:    r.Phone,
		Email:    r.Email,
		Company:  r.Company,
		Favorite: r.Favorite,
	}
}

// List returns the caller's contacts
// @Summary      List contacts
// @Description  List up to 20 contacts, optionally filtered by search term and favorites
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        searchTerm query string false "Case-insensitive substring match on name, email, phone or company"
// @Param        filterFavoritesOnly query bool false "Only favorites"
// @Success      200 {object} ListResponse
// @Router       /contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	ownerID, _ := auth.GetUserIDFromContext(r.Context())

	searchTerm := r.URL.Query().Get("searchTerm")
	favoritesOnly := r.URL.Query().Get("filterFavoritesOnly") == "true"

	contacts, err := h.service.List(r.Context(), ownerID, searchTerm, favoritesOnly)
	if err != nil {
		logger.Error("failed to list contacts", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list contacts", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{Data: contacts}, http.StatusOK)
}

// Create adds a contact
// @Summary      Add a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MutationResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Router       /contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	ownerID, _ := auth.GetUserIDFromContext(r.Context())

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), ownerID, req.fields())
	if err != nil {
		if isValidationError(err) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("failed to create contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to add contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, MutationResponse{Message: "Contact added", Data: created}, http.StatusOK)
}

// Update replaces the editable fields of a contact
// @Summary      Update a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MutationResponse
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /contacts [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	ownerID, _ := auth.GetUserIDFromContext(r.Context())

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	contactID, ok := parseContactID(req.ID)
	if !ok {
		respondNotFound(w)
		return
	}

	updated, err := h.service.Update(r.Context(), ownerID, contactID, req.fields())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondNotFound(w)
			return
		}
		if isValidationError(err) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("failed to update contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, MutationResponse{Message: "Updated", Data: updated}, http.StatusOK)
}

// ToggleFavorite flips the favorite flag of a contact
// @Summary      Toggle favorite
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MutationResponse
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /contacts/favorite [patch]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	ownerID, _ := auth.GetUserIDFromContext(r.Context())

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	contactID, ok := parseContactID(req.ID)
	if !ok {
		respondNotFound(w)
		return
	}

	toggled, err := h.service.ToggleFavorite(r.Context(), ownerID, contactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondNotFound(w)
			return
		}
		logger.Error("failed to toggle favorite", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to toggle favorite", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, MutationResponse{Message: "Favorite toggled", Data: toggled}, http.StatusOK)
}

// Delete removes a contact
// @Summary      Delete a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MutationResponse
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /contacts [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	ownerID, _ := auth.GetUserIDFromContext(r.Context())

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	contactID, ok := parseContactID(req.ID)
	if !ok {
		respondNotFound(w)
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, contactID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respondNotFound(w)
			return
		}
		logger.Error("failed to delete contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, MutationResponse{Message: "Deleted"}, http.StatusOK)
}

// parseContactID maps a missing or malformed id to not-found semantics so a
// bad id is indistinguishable from a foreign one.
func parseContactID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func respondNotFound(w http.ResponseWriter) {
	httputil.RespondErrorWithCode(w, "Contact not found", httputil.CodeNotFound, http.StatusNotFound)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) || errors.Is(err, ErrPhoneRequired)
}
