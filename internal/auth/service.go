package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"contacts-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// UserStore is the slice of user persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, name, email string, passwordHash, picture *string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Result carries a freshly issued token together with the resolved user.
type Result struct {
	Token     string
	User      *user.User
	IsNewUser bool
}

// Service orchestrates register, login, Google sign-in and token-to-user
// resolution. Tokens are stateless: once issued they stay valid until expiry.
type Service struct {
	users          UserStore
	hasher         *Hasher
	tokens         TokenService
	idVerifier     TokenVerifier
	accessVerifier TokenVerifier
	tokenDuration  time.Duration
}

func NewService(
	users UserStore,
	hasher *Hasher,
	tokens TokenService,
	idVerifier TokenVerifier,
	accessVerifier TokenVerifier,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		idVerifier:     idVerifier,
		accessVerifier: accessVerifier,
		tokenDuration:  tokenDuration,
	}
}

// Register creates a new account and issues a token. Duplicate emails surface
// as user.ErrDuplicateEmail via the unique index, so two concurrent
// registrations with the same email cannot both succeed.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Result, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, &passwordHash, nil)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueFor(newUser, true)
}

// Login authenticates with email and password. An unknown email and a wrong
// password return the identical error so callers cannot probe which accounts
// exist.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// OAuth-only accounts have no hash and cannot log in with a password.
	if existing.PasswordHash == nil || !s.hasher.Verify(password, *existing.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueFor(existing, false)
}

// GoogleVerify resolves a Google assertion to a local account, creating one
// on first sign-in. Exactly one of idToken and accessToken is expected; the
// assertion shape selects the verification strategy.
func (s *Service) GoogleVerify(ctx context.Context, idToken, accessToken string) (*Result, error) {
	var verifier TokenVerifier
	var assertion string
	switch {
	case idToken != "":
		verifier, assertion = s.idVerifier, idToken
	case accessToken != "":
		verifier, assertion = s.accessVerifier, accessToken
	default:
		return nil, ErrInvalidAssertion
	}

	identity, err := verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, ErrInvalidAssertion
	}

	email := normalizeEmail(identity.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.issueFor(existing, false)
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var picture *string
	if identity.Picture != "" {
		picture = &identity.Picture
	}

	created, err := s.users.Create(ctx, identity.Name, email, nil, picture)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueFor(created, true)
}

// Me resolves a bearer token to its user. Verification failures map to
// ErrUnauthenticated; a valid token for a vanished user maps to
// user.ErrNotFound.
func (s *Service) Me(ctx context.Context, tokenStr string) (*user.User, error) {
	claims, err := s.tokens.VerifyToken(tokenStr)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return existing, nil
}

func (s *Service) issueFor(u *user.User, isNew bool) (*Result, error) {
	token, err := s.tokens.CreateToken(u.ID, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &Result{Token: token, User: u, IsNewUser: isNew}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
