package database

import (
	"context"

	"wastebin-backend/internal/models"
)

const transactionColumns = `id, bin_id, user_id, amount, payment_method, description, status, created_at, updated_at`

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, bin_id, user_id, amount, payment_method, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.BinID, t.UserID, t.Amount, t.PaymentMethod, t.Description, t.Status, t.CreatedAt, t.UpdatedAt)
	return Translate(err, "Transaction")
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := getOne[models.Transaction](ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil {
		return nil, Translate(err, "Transaction")
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	out := []models.Transaction{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC`)
	return out, Translate(err, "Transaction")
}

// ListTransactionsForOwner returns the transactions userID created plus every
// transaction recorded against a bin assigned to userID.
func (s *Store) ListTransactionsForOwner(ctx context.Context, userID string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT t.id, t.bin_id, t.user_id, t.amount, t.payment_method, t.description,
		       t.status, t.created_at, t.updated_at
		FROM transactions t
		LEFT JOIN bins b ON b.bin_id = t.bin_id
		WHERE t.user_id = $1 OR b.assigned_user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	return out, Translate(err, "Transaction")
}

func (s *Store) ListTransactionsForBin(ctx context.Context, binID string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+transactionColumns+` FROM transactions WHERE bin_id = $1 ORDER BY created_at DESC`, binID)
	return out, Translate(err, "Transaction")
}

func (s *Store) SetTransactionStatus(ctx context.Context, id, status string, now int64) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.GetContext(ctx, &t, `
		UPDATE transactions SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+transactionColumns, id, status, now)
	if err != nil {
		return nil, Translate(err, "Transaction")
	}
	return &t, nil
}
