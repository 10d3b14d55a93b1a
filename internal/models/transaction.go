package models

import "time"

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

type Transaction struct {
	ID            string  `json:"id" db:"id"`
	BinID         string  `json:"bin_id" db:"bin_id"`
	UserID        string  `json:"user_id" db:"user_id"`
	Amount        float64 `json:"amount" db:"amount"`
	PaymentMethod *string `json:"payment_method,omitempty" db:"payment_method"`
	Description   *string `json:"description,omitempty" db:"description"`
	Status        string  `json:"status" db:"status"` // 'pending', 'completed', 'failed'
	CreatedAt     int64   `json:"created_at" db:"created_at"`
	UpdatedAt     int64   `json:"updated_at" db:"updated_at"`
}

type TransactionResponse struct {
	ID            string  `json:"id"`
	BinID         string  `json:"bin_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	Description   *string `json:"description,omitempty"`
	Status        string  `json:"status"`
	CreatedAtIso  string  `json:"created_at"`
	UpdatedAtIso  string  `json:"updated_at"`
}

type CreateTransactionRequest struct {
	BinID         string  `json:"binId" validate:"required,bin_id"`
	Amount        float64 `json:"amount" validate:"gt=0,lt=10000000000"`
	PaymentMethod *string `json:"paymentMethod,omitempty" validate:"omitempty,max=50"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateTransactionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed"`
}

func (t *Transaction) ToResponse() TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		BinID:         t.BinID,
		UserID:        t.UserID,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Description:   t.Description,
		Status:        t.Status,
		CreatedAtIso:  time.Unix(t.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAtIso:  time.Unix(t.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
}

func ToTransactionResponses(txs []Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i := range txs {
		out[i] = txs[i].ToResponse()
	}
	return out
}
