package database

import (
	"context"
	"strings"

	"wastebin-backend/internal/models"
)

const userColumns = `id, email, name, role, email_confirmed, created_at`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, email_confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.Name, u.Role, u.EmailConfirmed, u.CreatedAt)
	return Translate(err, "User")
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := getOne[models.User](ctx, s.db, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, Translate(err, "User")
	}
	return u, nil
}

// GetUserByEmail matches case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := getOne[models.User](ctx, s.db,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, Translate(err, "User")
	}
	return u, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email)
	if err != nil {
		return false, Translate(err, "User")
	}
	return exists, nil
}

// UserRole returns the role recorded for id, with legacy roles folded in.
func (s *Store) UserRole(ctx context.Context, id string) (string, error) {
	var role string
	if err := s.db.GetContext(ctx, &role, `SELECT role FROM users WHERE id = $1`, id); err != nil {
		return "", Translate(err, "User")
	}
	return models.NormalizeRole(role), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	return users, Translate(err, "User")
}

// SearchUsers returns users whose email contains pattern, ignoring case.
func (s *Store) SearchUsers(ctx context.Context, pattern string) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE email ILIKE $1 ESCAPE '\' ORDER BY email`,
		"%"+escapeLike(pattern)+"%")
	return users, Translate(err, "User")
}

// DeleteUser removes the profile row in a transaction and runs beforeCommit
// before committing. An error from beforeCommit rolls the delete back, which
// also restores the bin assignments cleared by ON DELETE SET NULL.
func (s *Store) DeleteUser(ctx context.Context, id string, beforeCommit func(context.Context) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Translate(err, "User")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return Translate(err, "User")
	}
	if err := requireAffected(res); err != nil {
		return Translate(err, "User")
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}
	return Translate(tx.Commit(), "User")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
