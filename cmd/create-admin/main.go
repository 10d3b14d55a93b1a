// Command create-admin provisions a confirmed admin account: the identity
// through the elevated identity client and the matching profile row.
//
//	go run ./cmd/create-admin -email root@example.com -name Root
//
// The password is read from ADMIN_PASSWORD when -password is not given.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/config"
	"wastebin-backend/internal/database"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/services"
	"wastebin-backend/pkg/logger"
)

func main() {
	email := flag.String("email", "", "admin email")
	name := flag.String("name", "Admin", "display name")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	cfg, _ := config.Load()
	l := logger.New(cfg.Env)

	if *email == "" || *password == "" {
		flag.Usage()
		l.Fatal().Msg("❌ -email and -password (or ADMIN_PASSWORD) are required")
	}
	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("❌ invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatal().Err(err).Msg("❌ database connection failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		l.Fatal().Err(err).Msg("❌ database migrations failed")
	}

	var (
		auth  services.SignUpper
		admin identity.Administrator
	)
	if cfg.IdentityProvider == config.ProviderLocal {
		local := identity.NewLocalProvider(db, cfg.JWTSecret, cfg.TokenTTL, true, l)
		if err := local.Migrate(ctx); err != nil {
			l.Fatal().Err(err).Msg("❌ identity migrations failed")
		}
		auth, admin = local, local
	} else {
		auth = identity.NewAuthClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseJWTSecret, l)
		admin = identity.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, l)
	}

	reg := services.NewRegistrar(auth, admin, database.NewStore(db), cfg.PasswordMinLength, l)
	user, err := reg.Provision(ctx, services.RegisterInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     models.RoleAdmin,
	})
	if apperr.Is(err, apperr.KindConflict) {
		l.Warn().Str("email", *email).Msg("⚠️ user already exists")
		return
	}
	if err != nil {
		l.Fatal().Err(err).Msg("❌ failed to create admin")
	}
	l.Info().Str("id", user.ID).Str("email", user.Email).Msg("✅ admin created")
}
