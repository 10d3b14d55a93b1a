package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"wastebin-backend/internal/config"
	"wastebin-backend/internal/database"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/router"
	"wastebin-backend/pkg/logger"
)

func main() {
	cfg, envLoaded := config.Load()
	l := logger.New(cfg.Env)

	l.Info().Str("env", cfg.Env).Msg("🚀 waste bin backend starting")
	if envLoaded {
		l.Info().Msg("✅ .env file loaded")
	} else {
		l.Warn().Msg("⚠️ .env file not found, using environment variables from system")
	}

	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("❌ invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatal().Err(err).Msg("❌ database connection failed")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		l.Fatal().Err(err).Msg("❌ database migrations failed")
	}
	l.Info().Msg("✅ database migrations completed")

	if cfg.SeedBins {
		if err := database.SeedBins(ctx, db, l); err != nil {
			l.Fatal().Err(err).Msg("❌ bin seeding failed")
		}
	}

	auth, admin, err := identityClients(ctx, cfg, db, l)
	if err != nil {
		l.Fatal().Err(err).Msg("❌ identity provider setup failed")
	}

	rdb := cfg.Redis.NewRedis(ctx, l)
	if rdb != nil {
		defer rdb.Close()
	}

	handler := router.New(router.Deps{
		Config: cfg,
		Log:    l,
		Store:  database.NewStore(db),
		Auth:   auth,
		Admin:  admin,
		Redis:  rdb,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Str("identity", cfg.IdentityProvider).Msg("🔌 ready to accept requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Str("port", cfg.Port).Msg("❌ server failed to start")
		}
	}()

	<-ctx.Done()
	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("graceful shutdown failed")
	}
	l.Info().Msg("shutdown complete")
}

// identityClients builds the restricted and elevated identity clients for
// the configured provider.
func identityClients(ctx context.Context, cfg config.Config, db *sqlx.DB, l zerolog.Logger) (identity.Authenticator, identity.Administrator, error) {
	switch cfg.IdentityProvider {
	case config.ProviderLocal:
		local := identity.NewLocalProvider(db, cfg.JWTSecret, cfg.TokenTTL, cfg.AutoConfirm, l)
		if err := local.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		l.Warn().Msg("⚠️ using the local identity provider, not for production")
		return local, local, nil
	default:
		auth := identity.NewAuthClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseJWTSecret, l)
		admin := identity.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, l)
		if err := auth.Health(ctx); err != nil {
			l.Warn().Err(err).Msg("⚠️ identity service health check failed")
		}
		return auth, admin, nil
	}
}
