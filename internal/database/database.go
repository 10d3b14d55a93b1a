package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func Connect(ctx context.Context, dbURL string, log zerolog.Logger) (*sqlx.DB, error) {
	log.Debug().
		Int("url_length", len(dbURL)).
		Str("url_prefix", dbURL[:min(12, len(dbURL))]).
		Msg("connecting to database")

	db, err := sqlx.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	log.Info().Msg("✅ database connection established")
	return db, nil
}

// Migrate creates the tables owned by the table store. Statements are
// idempotent and run in order on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		// Profile rows; the identity itself lives in the identity service
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL CHECK(role IN ('admin', 'client', 'user')),
			email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email))`,

		`CREATE TABLE IF NOT EXISTS bins (
			bin_id TEXT PRIMARY KEY,
			location TEXT NOT NULL,
			waste_level INT NOT NULL DEFAULT 0 CHECK(waste_level BETWEEN 0 AND 100),
			last_pickup BIGINT,
			last_updated BIGINT,
			qr_url TEXT,
			assigned_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			scheduled_pickup BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS bins_assigned_user_idx ON bins (assigned_user_id)`,

		`CREATE TABLE IF NOT EXISTS pickup_schedules (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL REFERENCES bins(bin_id) ON DELETE CASCADE,
			requested_by TEXT NOT NULL,
			scheduled_at BIGINT NOT NULL,
			notes TEXT,
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed', 'cancelled')),
			completed_at BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS pickup_schedules_bin_idx ON pickup_schedules (bin_id, scheduled_at)`,

		// Transactions keep their user; deleting a user with payments is refused
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL REFERENCES bins(bin_id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			amount NUMERIC(12, 2) NOT NULL CHECK(amount > 0),
			payment_method TEXT,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed', 'failed')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS transactions_user_idx ON transactions (user_id)`,
		`CREATE INDEX IF NOT EXISTS transactions_bin_idx ON transactions (bin_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Store is the table-store side of the Identity & Data Service.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return Translate(err, "Database")
	}
	return nil
}
