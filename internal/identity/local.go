package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/database"
)

// LocalProvider is a self-hosted identity service for development. It
// keeps identities in its own table and issues HS256 access tokens.
type LocalProvider struct {
	db          *sqlx.DB
	secret      []byte
	ttl         time.Duration
	autoConfirm bool
	log         zerolog.Logger
	now         func() time.Time
}

type localIdentity struct {
	ID               string `db:"id"`
	Email            string `db:"email"`
	PasswordHash     string `db:"password_hash"`
	EmailConfirmedAt *int64 `db:"email_confirmed_at"`
}

func (li localIdentity) identity() *Identity {
	return &Identity{ID: li.ID, Email: li.Email, EmailConfirmed: li.EmailConfirmedAt != nil}
}

func NewLocalProvider(db *sqlx.DB, secret string, ttl time.Duration, autoConfirm bool, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		db:          db,
		secret:      []byte(secret),
		ttl:         ttl,
		autoConfirm: autoConfirm,
		log:         log,
		now:         time.Now,
	}
}

func (p *LocalProvider) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS auth_identities (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			email_confirmed_at BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS auth_identities_email_idx ON auth_identities (lower(email))`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *LocalProvider) create(ctx context.Context, email, password string, confirmed bool) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Upstream("Failed to hash password", err)
	}
	li := localIdentity{ID: uuid.New().String(), Email: strings.TrimSpace(email), PasswordHash: string(hash)}
	now := p.now().Unix()
	if confirmed {
		li.EmailConfirmedAt = &now
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO auth_identities (id, email, password_hash, email_confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, li.ID, li.Email, li.PasswordHash, li.EmailConfirmedAt, now)
	if err != nil {
		err = database.Translate(err, "User")
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, "User already exists", err)
		}
		return nil, err
	}
	return li.identity(), nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, _ map[string]interface{}) (*Identity, error) {
	return p.create(ctx, email, password, p.autoConfirm)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var li localIdentity
	err := p.db.GetContext(ctx, &li, `
		SELECT id, email, password_hash, email_confirmed_at
		FROM auth_identities WHERE lower(email) = lower($1)
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, database.Translate(err, "User")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(li.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if li.EmailConfirmedAt == nil {
		return nil, apperr.Validation("Email not confirmed")
	}

	token, err := p.issue(li.ID, li.Email)
	if err != nil {
		return nil, apperr.Upstream("Failed to create token", err)
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(p.ttl.Seconds()),
		Identity:    *li.identity(),
	}, nil
}

func (p *LocalProvider) issue(id, email string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	return token.SignedString(p.secret)
}

// VerifyToken checks the signature and expiry, then confirms the identity
// still exists so deleted users lose access immediately.
func (p *LocalProvider) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	claims, err := parseAccessToken(p.secret, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
	}
	var li localIdentity
	err = p.db.GetContext(ctx, &li, `
		SELECT id, email, password_hash, email_confirmed_at
		FROM auth_identities WHERE id = $1
	`, claims.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	if err != nil {
		return nil, database.Translate(err, "User")
	}
	return li.identity(), nil
}

// ResetPassword does not send mail; the request is only logged.
func (p *LocalProvider) ResetPassword(ctx context.Context, email string) error {
	p.log.Info().Str("email", email).Msg("password reset requested (local identity provider sends no email)")
	return nil
}

func (p *LocalProvider) Health(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return apperr.Upstream("Identity store unreachable", err)
	}
	return nil
}

func (p *LocalProvider) CreateUser(ctx context.Context, email, password string, confirmed bool, _ map[string]interface{}) (*Identity, error) {
	return p.create(ctx, email, password, confirmed)
}

func (p *LocalProvider) DeleteUser(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE id = $1`, id)
	if err != nil {
		return database.Translate(err, "User")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.Translate(err, "User")
	}
	if n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

var (
	_ Authenticator = (*LocalProvider)(nil)
	_ Administrator = (*LocalProvider)(nil)
)
