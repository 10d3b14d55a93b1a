package handlers

import (
	"net/http"
	"strings"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/services"
	"wastebin-backend/internal/validation"
	"wastebin-backend/pkg/utils"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	Message string              `json:"message"`
	User    models.UserResponse `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string               `json:"message"`
	Role    string               `json:"role"`
	Token   string               `json:"token"`
	User    models.UserResponse  `json:"user"`
	Bins    []models.BinResponse `json:"bins,omitempty"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// Register creates a client account. Creating an admin account requires
// the caller to be an authenticated admin.
func Register(reg Registerer, principals PrincipalResolver, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		in := services.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name, Role: req.Role}.Normalize()
		if err := reg.Validate(in); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if in.Role == models.RoleAdmin {
			caller, err := principals.Resolve(r)
			if err != nil {
				resp.Fail(w, r, err)
				return
			}
			if !caller.IsAdmin() {
				resp.Fail(w, r, apperr.Forbidden("Only admins can create admin accounts"))
				return
			}
		}

		resp.Log.Info().Str("email", in.Email).Str("role", in.Role).Msg("📝 registration attempt")

		user, err := reg.Register(r.Context(), in)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}

		message := "Registration successful!"
		if !user.EmailConfirmed {
			message = "Registration successful! Please check your email to confirm your account."
		}
		utils.JSON(w, http.StatusCreated, RegisterResponse{Message: message, User: user.ToUserResponse()})
	}
}

// Login exchanges credentials for a bearer token. Admins also receive the
// full bin list.
func Login(auth SignInner, users UserStore, bins BinStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, apperr.Validation("Email and password are required"))
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		resp.Log.Info().Str("email", email).Msg("🔐 login attempt")

		session, err := auth.SignIn(r.Context(), email, req.Password)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}

		user, err := users.GetUser(r.Context(), session.Identity.ID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				err = apperr.Wrap(apperr.KindUnauthenticated, "User profile not found", err)
			}
			resp.Fail(w, r, err)
			return
		}

		out := LoginResponse{
			Role:  models.NormalizeRole(user.Role),
			Token: session.AccessToken,
			User:  user.ToUserResponse(),
		}
		if out.Role == models.RoleAdmin {
			all, err := bins.ListBins(r.Context())
			if err != nil {
				resp.Fail(w, r, err)
				return
			}
			out.Message = "Admin Dashboard Loaded"
			out.Bins = models.ToBinResponses(all)
		} else {
			out.Message = "User Dashboard Loaded"
		}

		resp.Log.Info().Str("email", user.Email).Str("role", out.Role).Msg("✅ login successful")
		utils.Success(w, out)
	}
}

func ResetPassword(auth SignInner, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := validation.Email(email); err != nil {
			resp.Fail(w, r, err)
			return
		}

		if err := auth.ResetPassword(r.Context(), email); err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, map[string]string{"message": "Password reset email sent"})
	}
}
