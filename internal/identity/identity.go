// Package identity talks to the hosted identity service. Ordinary traffic
// goes through an Authenticator holding the restricted key; user deletion
// and forced user creation go through an Administrator holding the
// elevated key. The two are constructed separately and injected where
// needed.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wastebin-backend/internal/apperr"
)

// ErrInvalidCredentials is returned by SignIn for a wrong email or password.
var ErrInvalidCredentials = apperr.Validation("Invalid login credentials")

type Identity struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Identity    Identity `json:"user"`
}

// Authenticator is the restricted-privilege surface.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	ResetPassword(ctx context.Context, email string) error
	Health(ctx context.Context) error
}

// Administrator is the elevated-privilege surface.
type Administrator interface {
	CreateUser(ctx context.Context, email, password string, confirmed bool, metadata map[string]interface{}) (*Identity, error)
	DeleteUser(ctx context.Context, id string) error
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// parseAccessToken checks an HS256 token's signature and expiry.
func parseAccessToken(secret []byte, token string) (*accessClaims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
