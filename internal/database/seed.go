package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// SeedBins inserts a small demo fleet into an empty bins table.
func SeedBins(ctx context.Context, db *sqlx.DB, log zerolog.Logger) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM bins"); err != nil {
		return err
	}

	if count > 0 {
		log.Debug().Int("bins", count).Msg("bins already seeded, skipping")
		return nil
	}

	bins := []map[string]interface{}{
		{"bin_id": "BIN-001", "location": "325 S 1st St, San Jose", "waste_level": 45},
		{"bin_id": "BIN-002", "location": "200 E Santa Clara St, San Jose", "waste_level": 67},
		{"bin_id": "BIN-003", "location": "151 W Mission St, San Jose", "waste_level": 23},
		{"bin_id": "BIN-004", "location": "408 Almaden Blvd, San Jose", "waste_level": 89},
		{"bin_id": "BIN-005", "location": "180 Park Ave, San Jose", "waste_level": 12},
		{"bin_id": "BIN-006", "location": "72 N Almaden Ave, San Jose", "waste_level": 78},
		{"bin_id": "BIN-007", "location": "345 E Santa Clara St, San Jose", "waste_level": 56},
		{"bin_id": "BIN-008", "location": "99 S Market St, San Jose", "waste_level": 34},
	}

	now := time.Now().Unix()
	for _, bin := range bins {
		bin["created_at"] = now
		bin["last_updated"] = now
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO bins (bin_id, location, waste_level, last_updated, created_at)
			VALUES (:bin_id, :location, :waste_level, :last_updated, :created_at)
		`, bin)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", bin["bin_id"], err)
		}
	}

	log.Info().Int("bins", len(bins)).Msg("🌱 seeded demo bins")
	return nil
}
