package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
	// RoleLegacyUser was the default role of early accounts; it carries
	// client capabilities.
	RoleLegacyUser = "user"
)

// NormalizeRole folds legacy role names into the current taxonomy.
func NormalizeRole(role string) string {
	if role == RoleLegacyUser {
		return RoleClient
	}
	return role
}

type User struct {
	ID             string `json:"id" db:"id"`
	Email          string `json:"email" db:"email"`
	Name           string `json:"name" db:"name"`
	Role           string `json:"role" db:"role"` // "admin" or "client"
	EmailConfirmed bool   `json:"email_confirmed" db:"email_confirmed"`
	CreatedAt      int64  `json:"created_at" db:"created_at"` // Unix timestamp
}

type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	EmailConfirmed bool   `json:"email_confirmed"`
	CreatedAtIso   string `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           NormalizeRole(u.Role),
		EmailConfirmed: u.EmailConfirmed,
		CreatedAtIso:   time.Unix(u.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}
