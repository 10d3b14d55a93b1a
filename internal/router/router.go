package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wastebin-backend/internal/config"
	"wastebin-backend/internal/handlers"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/middleware"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/services"
	"wastebin-backend/pkg/utils"
)

// Store is everything the HTTP layer needs from the table store.
type Store interface {
	handlers.UserStore
	handlers.BinStore
	handlers.ScheduleStore
	handlers.TransactionStore
	handlers.Pinger
	EmailExists(ctx context.Context, email string) (bool, error)
	UserRole(ctx context.Context, userID string) (string, error)
}

// Deps are the collaborators the router is built from. Auth holds the
// restricted credential and Admin the elevated one.
type Deps struct {
	Config config.Config
	Log    zerolog.Logger
	Store  Store
	Auth   identity.Authenticator
	Admin  identity.Administrator
	Redis  *redis.Client
}

func New(d Deps) http.Handler {
	resp := utils.Responder{Log: d.Log, ExposeDetails: d.Config.ExposeErrorDetails}
	guard := middleware.NewGuard(d.Auth, d.Store, d.Log, resp)
	registrar := services.NewRegistrar(d.Auth, d.Admin, d.Store, d.Config.PasswordMinLength, d.Log)
	credentialLimit := middleware.TokenBucket(d.Config.RateLimit, d.Redis, d.Log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Recoverer(d.Log))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		if d.Config.RateLimit.Enabled && d.Config.RateLimit.RequestsPerMin > 0 {
			r.Use(httprate.LimitByIP(d.Config.RateLimit.RequestsPerMin, time.Minute))
		}

		r.Get("/health", handlers.Health(d.Store, d.Auth, resp))

		// Credential endpoints
		r.Group(func(r chi.Router) {
			r.Use(credentialLimit)

			r.Post("/register", handlers.Register(registrar, guard, resp))
			r.Post("/login", handlers.Login(d.Auth, d.Store, d.Store, resp))
			r.Post("/reset-password", handlers.ResetPassword(d.Auth, resp))
		})

		// Public bin endpoints (sensors and QR scans)
		r.Get("/bins/{binId}", handlers.GetBin(d.Store, resp))
		r.Post("/update-waste-level", handlers.UpdateWasteLevel(d.Store, resp))

		// Authenticated: ownership is checked per resource
		r.Group(func(r chi.Router) {
			r.Use(guard.Auth)

			r.Get("/profile", handlers.GetProfile(d.Store, resp))
			r.Get("/assigned-bins", handlers.GetAssignedBins(d.Store, resp))
			r.Patch("/bins/{binId}", handlers.UpdateBin(d.Store, resp))

			r.Post("/schedule-pickup", handlers.SchedulePickup(d.Store, resp))
			r.Get("/pickup-schedules", handlers.ListSchedules(d.Store, resp))
			r.Get("/pickup-schedules/bin/{binId}", handlers.ListBinSchedules(d.Store, resp))
			r.Patch("/pickup-schedules/{id}", handlers.UpdateScheduleStatus(d.Store, resp))

			r.Post("/transactions", handlers.CreateTransaction(d.Store, resp))
			r.Get("/transactions", handlers.ListTransactions(d.Store, resp))
			r.Get("/transactions/bin/{binId}", handlers.ListBinTransactions(d.Store, resp))
			r.Get("/transactions/{id}", handlers.GetTransaction(d.Store, resp))
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(guard.Auth)
			r.Use(guard.RequireRole(models.RoleAdmin))

			r.Get("/bins", handlers.ListBins(d.Store, resp))
			r.Post("/bins", handlers.CreateBin(d.Store, resp))
			r.Delete("/bins/{binId}", handlers.DeleteBin(d.Store, resp))

			r.Post("/assign-bin", handlers.AssignBin(d.Store, d.Store, resp))
			r.Post("/assign-bin-by-email", handlers.AssignBinByEmail(d.Store, d.Store, resp))
			r.Post("/unassign-bin", handlers.UnassignBin(d.Store, resp))

			r.Patch("/transactions/{id}", handlers.UpdateTransactionStatus(d.Store, resp))

			r.Get("/users", handlers.ListUsers(d.Store, resp))
			r.Post("/users", handlers.CreateUser(registrar, resp))
			r.Delete("/users/{id}", handlers.DeleteUser(d.Store, d.Admin, resp))
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			utils.Error(w, http.StatusNotFound, "Not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			utils.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		})
	})

	// Static assets and SPA fallback
	spa := handlers.SPA(d.Config.StaticDir, resp)
	r.NotFound(spa)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
