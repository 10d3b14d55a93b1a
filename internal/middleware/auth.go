package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/models"
	"wastebin-backend/pkg/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// Principal is the acting identity of an authenticated request.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*identity.Identity, error)
}

type RoleLookup interface {
	UserRole(ctx context.Context, userID string) (string, error)
}

// Guard resolves bearer tokens to principals. Identity and role are
// looked up again on every request.
type Guard struct {
	tokens TokenVerifier
	roles  RoleLookup
	log    zerolog.Logger
	resp   utils.Responder
}

func NewGuard(tokens TokenVerifier, roles RoleLookup, log zerolog.Logger, resp utils.Responder) *Guard {
	return &Guard{tokens: tokens, roles: roles, log: log, resp: resp}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.Unauthenticated("No authorization token provided")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Unauthenticated("Invalid authorization header format")
	}
	return parts[1], nil
}

// Resolve runs identity resolution then role resolution for r.
func (g *Guard) Resolve(r *http.Request) (Principal, error) {
	token, err := BearerToken(r)
	if err != nil {
		return Principal{}, err
	}

	ident, err := g.tokens.VerifyToken(r.Context(), token)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUpstream {
			return Principal{}, err
		}
		return Principal{}, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
	}

	role, err := g.roles.UserRole(r.Context(), ident.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// deleted user and bad token are indistinguishable to callers
			return Principal{}, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
		}
		return Principal{}, err
	}

	return Principal{UserID: ident.ID, Email: ident.Email, Role: models.NormalizeRole(role)}, nil
}

// Auth rejects requests without a valid bearer token and stores the
// principal in the request context.
func (g *Guard) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Resolve(r)
		if err != nil {
			g.resp.Fail(w, r, err)
			return
		}
		g.log.Debug().
			Str("user_id", principal.UserID).
			Str("role", principal.Role).
			Str("path", r.URL.Path).
			Msg("authenticated")
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole checks the principal's role (must be used after Auth)
func (g *Guard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetUserFromContext(r)
			if !ok {
				g.resp.Fail(w, r, apperr.Unauthenticated("Authentication required"))
				return
			}
			if principal.Role != role {
				g.resp.Fail(w, r, apperr.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, UserContextKey, p)
}

// GetUserFromContext extracts the principal from request context
func GetUserFromContext(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(UserContextKey).(Principal)
	return p, ok
}

// Authorize is the per-resource ownership rule: admins may act on any
// resource, everyone else only on resources assigned to them. ownerID is
// "" for unassigned resources.
func Authorize(p Principal, ownerID string) error {
	if p.IsAdmin() {
		return nil
	}
	if ownerID != "" && ownerID == p.UserID {
		return nil
	}
	return apperr.Forbidden("You do not have access to this resource")
}
