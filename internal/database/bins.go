package database

import (
	"context"

	"wastebin-backend/internal/models"
)

const binColumns = `bin_id, location, waste_level, last_pickup, last_updated, qr_url,
	assigned_user_id, scheduled_pickup, created_at`

func (s *Store) GetBin(ctx context.Context, binID string) (*models.Bin, error) {
	b, err := getOne[models.Bin](ctx, s.db, `SELECT `+binColumns+` FROM bins WHERE bin_id = $1`, binID)
	if err != nil {
		return nil, Translate(err, "Bin")
	}
	return b, nil
}

func (s *Store) ListBins(ctx context.Context) ([]models.Bin, error) {
	bins := []models.Bin{}
	err := s.db.SelectContext(ctx, &bins, `SELECT `+binColumns+` FROM bins ORDER BY bin_id ASC`)
	return bins, Translate(err, "Bin")
}

func (s *Store) ListBinsAssignedTo(ctx context.Context, userID string) ([]models.Bin, error) {
	bins := []models.Bin{}
	err := s.db.SelectContext(ctx, &bins,
		`SELECT `+binColumns+` FROM bins WHERE assigned_user_id = $1 ORDER BY bin_id ASC`, userID)
	return bins, Translate(err, "Bin")
}

func (s *Store) CreateBin(ctx context.Context, b *models.Bin) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bins (bin_id, location, waste_level, qr_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, b.BinID, b.Location, b.WasteLevel, b.QRURL, b.CreatedAt)
	return Translate(err, "Bin")
}

// UpdateBinDetails changes the location and QR URL; nil leaves a field as is.
func (s *Store) UpdateBinDetails(ctx context.Context, binID string, location, qrURL *string) (*models.Bin, error) {
	var b models.Bin
	err := s.db.GetContext(ctx, &b, `
		UPDATE bins
		SET location = COALESCE($2, location),
		    qr_url = COALESCE($3, qr_url)
		WHERE bin_id = $1
		RETURNING `+binColumns, binID, location, qrURL)
	if err != nil {
		return nil, Translate(err, "Bin")
	}
	return &b, nil
}

func (s *Store) DeleteBin(ctx context.Context, binID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bins WHERE bin_id = $1`, binID)
	if err != nil {
		return Translate(err, "Bin")
	}
	return Translate(requireAffected(res), "Bin")
}

// UpdateWasteLevel stores level and returns the level read back from the row.
func (s *Store) UpdateWasteLevel(ctx context.Context, binID string, level int, now int64) (int, error) {
	var current int
	err := s.db.GetContext(ctx, &current, `
		UPDATE bins
		SET waste_level = $2, last_updated = $3
		WHERE bin_id = $1
		RETURNING waste_level
	`, binID, level, now)
	if err != nil {
		return 0, Translate(err, "Bin")
	}
	return current, nil
}

// AssignBin sets or, with a nil userID, clears the bin's assignee.
func (s *Store) AssignBin(ctx context.Context, binID string, userID *string) (*models.Bin, error) {
	var b models.Bin
	err := s.db.GetContext(ctx, &b, `
		UPDATE bins SET assigned_user_id = $2
		WHERE bin_id = $1
		RETURNING `+binColumns, binID, userID)
	if err != nil {
		return nil, Translate(err, "Bin")
	}
	return &b, nil
}
