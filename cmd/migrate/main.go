// Command migrate creates or updates the database schema without starting
// the server. With -seed it also loads the demo bins into an empty table.
package main

import (
	"context"
	"flag"
	"time"

	"wastebin-backend/internal/config"
	"wastebin-backend/internal/database"
	"wastebin-backend/internal/identity"
	"wastebin-backend/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", false, "insert demo bins when the bins table is empty")
	flag.Parse()

	cfg, envLoaded := config.Load()
	l := logger.New(cfg.Env)
	if !envLoaded {
		l.Info().Msg("no .env file found, using environment variables")
	}
	if cfg.DatabaseURL == "" {
		l.Fatal().Msg("DATABASE_URL environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		l.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.IdentityProvider == config.ProviderLocal {
		local := identity.NewLocalProvider(db, cfg.JWTSecret, cfg.TokenTTL, cfg.AutoConfirm, l)
		if err := local.Migrate(ctx); err != nil {
			l.Fatal().Err(err).Msg("identity migration failed")
		}
	}
	if *seed || cfg.SeedBins {
		if err := database.SeedBins(ctx, db, l); err != nil {
			l.Fatal().Err(err).Msg("seeding failed")
		}
	}

	l.Info().Msg("migration completed successfully")
}
