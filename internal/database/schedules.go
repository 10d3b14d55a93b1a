package database

import (
	"context"
	"database/sql"
	"errors"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/models"
)

const scheduleColumns = `id, bin_id, requested_by, scheduled_at, notes, status, completed_at, created_at, updated_at`

// CreateSchedule inserts the schedule and records the pickup time on the bin.
func (s *Store) CreateSchedule(ctx context.Context, ps *models.PickupSchedule) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Translate(err, "Pickup schedule")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pickup_schedules (id, bin_id, requested_by, scheduled_at, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ps.ID, ps.BinID, ps.RequestedBy, ps.ScheduledAt, ps.Notes, ps.Status, ps.CreatedAt, ps.UpdatedAt)
	if err != nil {
		return Translate(err, "Pickup schedule")
	}

	res, err := tx.ExecContext(ctx, `UPDATE bins SET scheduled_pickup = $2 WHERE bin_id = $1`, ps.BinID, ps.ScheduledAt)
	if err != nil {
		return Translate(err, "Bin")
	}
	if err := requireAffected(res); err != nil {
		return Translate(err, "Bin")
	}

	return Translate(tx.Commit(), "Pickup schedule")
}

func (s *Store) GetSchedule(ctx context.Context, id string) (*models.PickupSchedule, error) {
	ps, err := getOne[models.PickupSchedule](ctx, s.db,
		`SELECT `+scheduleColumns+` FROM pickup_schedules WHERE id = $1`, id)
	if err != nil {
		return nil, Translate(err, "Pickup schedule")
	}
	return ps, nil
}

func (s *Store) ListSchedules(ctx context.Context) ([]models.PickupSchedule, error) {
	out := []models.PickupSchedule{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+scheduleColumns+` FROM pickup_schedules ORDER BY scheduled_at ASC`)
	return out, Translate(err, "Pickup schedule")
}

func (s *Store) ListSchedulesForBin(ctx context.Context, binID string) ([]models.PickupSchedule, error) {
	out := []models.PickupSchedule{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+scheduleColumns+` FROM pickup_schedules WHERE bin_id = $1 ORDER BY scheduled_at ASC`, binID)
	return out, Translate(err, "Pickup schedule")
}

// ListSchedulesForOwner returns schedules of bins currently assigned to userID.
func (s *Store) ListSchedulesForOwner(ctx context.Context, userID string) ([]models.PickupSchedule, error) {
	out := []models.PickupSchedule{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT ps.id, ps.bin_id, ps.requested_by, ps.scheduled_at, ps.notes, ps.status,
		       ps.completed_at, ps.created_at, ps.updated_at
		FROM pickup_schedules ps
		JOIN bins b ON b.bin_id = ps.bin_id
		WHERE b.assigned_user_id = $1
		ORDER BY ps.scheduled_at ASC
	`, userID)
	return out, Translate(err, "Pickup schedule")
}

// SetScheduleStatus moves a pending schedule to status without touching
// the bin. Use CompleteSchedule for completion.
func (s *Store) SetScheduleStatus(ctx context.Context, id, status string, now int64) (*models.PickupSchedule, error) {
	var ps models.PickupSchedule
	err := s.db.GetContext(ctx, &ps, `
		UPDATE pickup_schedules
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+scheduleColumns, id, status, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Conflict("Pickup schedule is no longer pending")
	}
	if err != nil {
		return nil, Translate(err, "Pickup schedule")
	}
	return &ps, nil
}

// CompleteSchedule marks a pending schedule completed and, in the same
// database transaction, empties its bin and refreshes the last pickup time.
func (s *Store) CompleteSchedule(ctx context.Context, id string, now int64) (*models.PickupSchedule, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, Translate(err, "Pickup schedule")
	}
	defer tx.Rollback()

	var ps models.PickupSchedule
	err = tx.GetContext(ctx, &ps, `
		UPDATE pickup_schedules
		SET status = 'completed', completed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+scheduleColumns, id, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Conflict("Pickup schedule is no longer pending")
	}
	if err != nil {
		return nil, Translate(err, "Pickup schedule")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bins
		SET waste_level = 0, last_pickup = $2, last_updated = $2
		WHERE bin_id = $1
	`, ps.BinID, now)
	if err != nil {
		return nil, Translate(err, "Bin")
	}
	if err := requireAffected(res); err != nil {
		return nil, Translate(err, "Bin")
	}

	if err := tx.Commit(); err != nil {
		return nil, Translate(err, "Pickup schedule")
	}
	return &ps, nil
}
