package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/validation"
)

// ProfileStore is the slice of the table store registration writes to.
type ProfileStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
}

type SignUpper interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*identity.Identity, error)
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// Registrar creates an identity and its profile row as one logical step.
// The two live in different systems, so a failed profile insert is undone
// by deleting the identity through the elevated client.
type Registrar struct {
	auth              SignUpper
	admin             identity.Administrator
	profiles          ProfileStore
	log               zerolog.Logger
	passwordMinLength int
	now               func() time.Time
}

func NewRegistrar(auth SignUpper, admin identity.Administrator, profiles ProfileStore, passwordMinLength int, log zerolog.Logger) *Registrar {
	return &Registrar{
		auth:              auth,
		admin:             admin,
		profiles:          profiles,
		log:               log,
		passwordMinLength: passwordMinLength,
		now:               time.Now,
	}
}

// Normalize trims and lower-cases the email and applies the default role.
func (in RegisterInput) Normalize() RegisterInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = models.RoleClient
	}
	in.Role = models.NormalizeRole(in.Role)
	return in
}

// Validate checks a normalized input without touching any backend.
func (r *Registrar) Validate(in RegisterInput) error {
	if err := validation.Email(in.Email); err != nil {
		return err
	}
	if err := validation.Password(in.Password, r.passwordMinLength); err != nil {
		return err
	}
	if in.Name == "" {
		return apperr.Validation("Name is required")
	}
	return validation.Role(in.Role)
}

// Register signs a user up through the restricted identity client. The
// identity service decides whether the email must be confirmed.
func (r *Registrar) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in = in.Normalize()
	if err := r.Validate(in); err != nil {
		return nil, err
	}
	if err := r.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}

	ident, err := r.auth.SignUp(ctx, in.Email, in.Password, metadata(in))
	if err != nil {
		return nil, err
	}
	return r.insertProfile(ctx, in, ident)
}

// Provision creates a confirmed account through the elevated client. Used
// by admins and the create-admin command.
func (r *Registrar) Provision(ctx context.Context, in RegisterInput) (*models.User, error) {
	in = in.Normalize()
	if err := r.Validate(in); err != nil {
		return nil, err
	}
	if err := r.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}

	ident, err := r.admin.CreateUser(ctx, in.Email, in.Password, true, metadata(in))
	if err != nil {
		return nil, err
	}
	return r.insertProfile(ctx, in, ident)
}

func (r *Registrar) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := r.profiles.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("User with this email already exists")
	}
	return nil
}

func (r *Registrar) insertProfile(ctx context.Context, in RegisterInput, ident *identity.Identity) (*models.User, error) {
	user := &models.User{
		ID:             ident.ID,
		Email:          in.Email,
		Name:           in.Name,
		Role:           in.Role,
		EmailConfirmed: ident.EmailConfirmed,
		CreatedAt:      r.now().Unix(),
	}
	if err := r.profiles.CreateUser(ctx, user); err != nil {
		r.compensate(ctx, ident.ID, err)
		return nil, err
	}

	r.log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", user.Role).
		Msg("✅ user registered")
	return user, nil
}

// compensate deletes an identity whose profile row could not be written.
// It runs even if the caller has gone away.
func (r *Registrar) compensate(ctx context.Context, identityID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := r.admin.DeleteUser(ctx, identityID); err != nil {
		r.log.Error().
			Err(err).
			AnErr("cause", cause).
			Str("identity_id", identityID).
			Msg("❌ compensation failed, identity left without profile")
		return
	}
	r.log.Warn().
		Err(cause).
		Str("identity_id", identityID).
		Msg("profile insert failed, identity deleted")
}

func metadata(in RegisterInput) map[string]interface{} {
	return map[string]interface{}{"name": in.Name, "role": in.Role}
}
