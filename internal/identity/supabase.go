package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"wastebin-backend/internal/apperr"
)

type goTrueUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

func (u goTrueUser) identity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, EmailConfirmed: u.EmailConfirmedAt != nil}
}

type goTrueSession struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        *goTrueUser `json:"user"`
}

// signUpResponse is either a bare user (confirmation pending) or a
// session (auto-confirmed projects).
type signUpResponse struct {
	goTrueUser
	User *goTrueUser `json:"user"`
}

type restClient struct {
	baseURL    string
	key        string
	httpClient *http.Client
	log        zerolog.Logger
}

func newRESTClient(baseURL, key string, log zerolog.Logger) restClient {
	return restClient{
		baseURL: baseURL + "/auth/v1",
		key:     key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// do sends one request. bearer defaults to the client key.
func (c restClient) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if bearer == "" {
		bearer = c.key
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream("Identity service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.Upstream("Identity service read failed", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("auth api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return translate(resp.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperr.Upstream("Identity service returned an unreadable response", err)
		}
	}
	return nil
}

// AuthClient uses the restricted (anon) key only.
type AuthClient struct {
	rest      restClient
	jwtSecret []byte
}

// NewAuthClient builds the restricted client. A non-empty jwtSecret turns
// on a local signature and expiry check before tokens are sent upstream.
func NewAuthClient(baseURL, anonKey, jwtSecret string, log zerolog.Logger) *AuthClient {
	c := &AuthClient{rest: newRESTClient(baseURL, anonKey, log)}
	if jwtSecret != "" {
		c.jwtSecret = []byte(jwtSecret)
	}
	return c
}

func (c *AuthClient) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Identity, error) {
	var resp signUpResponse
	err := c.rest.do(ctx, http.MethodPost, "/signup", "", map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     metadata,
	}, &resp)
	if err != nil {
		return nil, err
	}
	user := resp.goTrueUser
	if resp.User != nil {
		user = *resp.User
	}
	if user.ID == "" {
		return nil, apperr.Upstream("Identity service returned no user", nil)
	}
	return user.identity(), nil
}

func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp goTrueSession
	err := c.rest.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, apperr.Upstream("Identity service returned no session", nil)
	}
	return &Session{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
		Identity:    *resp.User.identity(),
	}, nil
}

// VerifyToken exchanges token for the identity it belongs to. Every call
// goes upstream; nothing is cached.
func (c *AuthClient) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("Missing token")
	}
	if c.jwtSecret != nil {
		if _, err := parseAccessToken(c.jwtSecret, token); err != nil {
			return nil, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
		}
	}

	var user goTrueUser
	if err := c.rest.do(ctx, http.MethodGet, "/user", token, nil, &user); err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindForbidden, apperr.KindNotFound, apperr.KindValidation:
			return nil, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	return user.identity(), nil
}

func (c *AuthClient) ResetPassword(ctx context.Context, email string) error {
	return c.rest.do(ctx, http.MethodPost, "/recover", "", map[string]string{"email": email}, nil)
}

func (c *AuthClient) Health(ctx context.Context) error {
	return c.rest.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

// AdminClient uses the elevated (service role) key only. Never hand it to
// request-scoped code paths other than user administration.
type AdminClient struct {
	rest restClient
}

func NewAdminClient(baseURL, serviceKey string, log zerolog.Logger) *AdminClient {
	return &AdminClient{rest: newRESTClient(baseURL, serviceKey, log)}
}

func (c *AdminClient) CreateUser(ctx context.Context, email, password string, confirmed bool, metadata map[string]interface{}) (*Identity, error) {
	var user goTrueUser
	err := c.rest.do(ctx, http.MethodPost, "/admin/users", "", map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": confirmed,
		"user_metadata": metadata,
	}, &user)
	if err != nil {
		return nil, err
	}
	return user.identity(), nil
}

func (c *AdminClient) DeleteUser(ctx context.Context, id string) error {
	return c.rest.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), "", nil, nil)
}

var (
	_ Authenticator = (*AuthClient)(nil)
	_ Administrator = (*AdminClient)(nil)
)
