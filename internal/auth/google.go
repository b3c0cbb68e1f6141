package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// ErrInvalidAssertion is returned when Google rejects the assertion, the call
// fails, or the verified identity lacks a confirmed email.
var ErrInvalidAssertion = errors.New("invalid google assertion")

// Identity is the local projection of a verified external identity.
// Adapters only translate; they never touch storage.
type Identity struct {
	Email   string
	Name    string
	Picture string
}

// TokenVerifier verifies a Google assertion and maps it to local identity
// fields. The two implementations cover the two assertion shapes clients
// send: a signed ID token or a bare OAuth access token.
type TokenVerifier interface {
	Verify(ctx context.Context, assertion string) (*Identity, error)
}

// IDTokenVerifier validates a Google ID token via the tokeninfo endpoint,
// which checks the signature against Google's published keys. The audience
// claim must match the configured client ID.
type IDTokenVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{
		clientID:   clientID,
		endpoint:   googleTokenInfoURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenInfoResponse struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"` // tokeninfo returns booleans as strings
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *IDTokenVerifier) Verify(ctx context.Context, assertion string) (*Identity, error) {
	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrInvalidAssertion
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, ErrInvalidAssertion
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidAssertion
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, ErrInvalidAssertion
	}

	// A token minted for another application must not authenticate here.
	if info.Audience != v.clientID {
		return nil, ErrInvalidAssertion
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return nil, ErrInvalidAssertion
	}

	return &Identity{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// AccessTokenVerifier exchanges a Google OAuth access token for the user's
// profile via the userinfo endpoint.
type AccessTokenVerifier struct {
	endpoint string
}

func NewAccessTokenVerifier() *AccessTokenVerifier {
	return &AccessTokenVerifier{endpoint: googleUserInfoURL}
}

type userInfoResponse struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *AccessTokenVerifier) Verify(ctx context.Context, assertion string) (*Identity, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: assertion})
	client := oauth2.NewClient(ctx, src)
	client.Timeout = 10 * time.Second

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, ErrInvalidAssertion
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrInvalidAssertion
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidAssertion
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, ErrInvalidAssertion
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, ErrInvalidAssertion
	}

	return &Identity{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// Compile-time interface assertions
var (
	_ TokenVerifier = (*IDTokenVerifier)(nil)
	_ TokenVerifier = (*AccessTokenVerifier)(nil)
)
