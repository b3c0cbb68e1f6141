package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"contacts-api/internal/httputil"
	"contacts-api/internal/logging"
	"contacts-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleVerifyRequest carries either a Google ID token or an OAuth access token
type GoogleVerifyRequest struct {
	IDToken     string `json:"idToken"`
	AccessToken string `json:"access_token"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      user.Public `json:"user"`
	IsNewUser bool        `json:"isNewUser,omitempty"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account with name, email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email in use"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email in use", "email", req.Email)
			httputil.RespondErrorWithCode(w, "Email in use", httputil.CodeEmailInUse, http.StatusConflict)
			return
		}
		if isValidationError(err) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to register", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered", "user_id", result.User.ID)
	respondAuth(w, result, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} AuthResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in", "user_id", result.User.ID)
	respondAuth(w, result, http.StatusOK)
}

// GoogleVerify handles Google sign-in
// @Summary      Verify a Google assertion
// @Description  Verify a Google ID token or access token, creating an account on first sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} AuthResponse "Existing user logged in"
// @Success      201 {object} AuthResponse "New user created"
// @Failure      401 {object} httputil.ErrorResponse "Invalid assertion"
// @Router       /auth/google/verify [post]
func (h *Handler) GoogleVerify(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req GoogleVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid google verify request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.GoogleVerify(r.Context(), req.IDToken, req.AccessToken)
	if err != nil {
		if errors.Is(err, ErrInvalidAssertion) {
			logger.Warn("google verify failed: invalid assertion")
			httputil.RespondErrorWithCode(w, "Invalid Google token", httputil.CodeInvalidAssertion, http.StatusUnauthorized)
			return
		}
		logger.Error("google verify failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if result.IsNewUser {
		logger.Info("user created via google sign-in", "user_id", result.User.ID)
		status = http.StatusCreated
	} else {
		logger.Info("user logged in via google sign-in", "user_id", result.User.ID)
	}
	respondAuth(w, result, status)
}

// Me resolves the bearer token to the current user
// @Summary      Current user
// @Description  Return the public profile of the token's user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.Public
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := bearerToken(r)
	if !ok {
		httputil.RespondErrorWithCode(w, "No token found", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	current, err := h.service.Me(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			httputil.RespondErrorWithCode(w, "Token invalid or expired", httputil.CodeUnauthenticated, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("me failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to resolve user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, current.Public(), http.StatusOK)
}

func respondAuth(w http.ResponseWriter, result *Result, statusCode int) {
	httputil.RespondJSON(w, AuthResponse{
		Token:     result.Token,
		User:      result.User.Public(),
		IsNewUser: result.IsNewUser,
	}, statusCode)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrInvalidEmailFormat)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
