package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/middleware"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/services"
	"wastebin-backend/internal/validation"
	"wastebin-backend/pkg/utils"
)

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required"`
}

type CreateUserResponse struct {
	Message string              `json:"message"`
	User    models.UserResponse `json:"user"`
}

func toUserResponses(users []models.User) []models.UserResponse {
	out := make([]models.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToUserResponse()
	}
	return out
}

// ListUsers returns all users, or those whose email contains ?email=.
func ListUsers(users UserStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			list []models.User
			err  error
		)
		if q := strings.TrimSpace(r.URL.Query().Get("email")); q != "" {
			list, err = users.SearchUsers(r.Context(), q)
		} else {
			list, err = users.ListUsers(r.Context())
		}
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, toUserResponses(list))
	}
}

// CreateUser provisions a confirmed account through the elevated identity
// client.
func CreateUser(reg Registerer, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		user, err := reg.Provision(r.Context(), services.RegisterInput{
			Email: req.Email, Password: req.Password, Name: req.Name, Role: req.Role,
		})
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.JSON(w, http.StatusCreated, CreateUserResponse{Message: "User created", User: user.ToUserResponse()})
	}
}

// DeleteUser removes the profile row and the identity together. The row
// delete is only committed once the identity is gone.
func DeleteUser(users UserStore, admin identity.Administrator, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			resp.Fail(w, r, apperr.Validation("User ID is required"))
			return
		}
		principal, _ := middleware.GetUserFromContext(r)
		if id == principal.UserID {
			resp.Fail(w, r, apperr.Validation("You cannot delete your own account"))
			return
		}

		user, err := users.GetUser(r.Context(), id)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		err = users.DeleteUser(r.Context(), id, func(ctx context.Context) error {
			if err := admin.DeleteUser(ctx, id); err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return err
			}
			return nil
		})
		if err != nil {
			resp.Fail(w, r, err)
			return
		}

		resp.Log.Info().Str("user_id", id).Str("email", user.Email).Msg("🗑️ user deleted")
		utils.Success(w, map[string]string{"message": "User deleted"})
	}
}

// GetProfile returns the caller's own profile row.
func GetProfile(users UserStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.GetUserFromContext(r)
		user, err := users.GetUser(r.Context(), principal.UserID)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, user.ToUserResponse())
	}
}
