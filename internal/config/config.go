package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderSupabase = "supabase"
	ProviderLocal    = "local"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	StaticDir   string
	CORSOrigins []string

	// Identity & Data Service
	IdentityProvider   string
	SupabaseURL        string
	SupabaseAnonKey    string // restricted: ordinary traffic only
	SupabaseServiceKey string // elevated: user deletion and forced creation only
	SupabaseJWTSecret  string

	// Local identity provider
	JWTSecret   string
	TokenTTL    time.Duration
	AutoConfirm bool

	PasswordMinLength  int
	ExposeErrorDetails bool
	SeedBins           bool

	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
	RequestsPerMin int
}

// Load reads .env (when present) and the process environment.
func Load() (Config, bool) {
	envLoaded := godotenv.Load() == nil

	env := envStr("APP_ENV", "development")
	cfg := Config{
		Env:         env,
		Port:        envStr("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StaticDir:   envStr("STATIC_DIR", "./public"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		IdentityProvider:   envStr("IDENTITY_PROVIDER", ProviderSupabase),
		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseJWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),

		JWTSecret:   os.Getenv("APP_JWT_SECRET"),
		TokenTTL:    envDur("APP_TOKEN_TTL", 7*24*time.Hour),
		AutoConfirm: envBool("AUTH_AUTO_CONFIRM", false),

		PasswordMinLength: envInt("PASSWORD_MIN_LENGTH", 8),

		ExposeErrorDetails: envBool("EXPOSE_ERROR_DETAILS", env != "production"),
		SeedBins:           envBool("SEED_BINS", false),

		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        envBool("RATE_LIMIT_ENABLED", true),
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
			RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
			TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
			RequestsPerMin: envInt("RATE_LIMIT_PER_MINUTE", 300),
		},
	}
	if cfg.PasswordMinLength < 1 {
		cfg.PasswordMinLength = 8
	}
	if cfg.RateLimit.Capacity < 1 {
		cfg.RateLimit.Capacity = 1
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	return cfg, envLoaded
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// Validate rejects configurations that would start a half-working server.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.IdentityProvider {
	case ProviderSupabase:
		if c.SupabaseURL == "" {
			errs = append(errs, errors.New("SUPABASE_URL is required"))
		}
		if c.SupabaseAnonKey == "" {
			errs = append(errs, errors.New("SUPABASE_ANON_KEY is required"))
		}
		if c.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("SUPABASE_SERVICE_ROLE_KEY is required"))
		}
		if c.SupabaseAnonKey != "" && c.SupabaseAnonKey == c.SupabaseServiceKey {
			errs = append(errs, errors.New("SUPABASE_ANON_KEY and SUPABASE_SERVICE_ROLE_KEY must differ"))
		}
	case ProviderLocal:
		if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("APP_JWT_SECRET must be at least 32 characters"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider))
	}
	return errors.Join(errs...)
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

func envList(k string, d []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
