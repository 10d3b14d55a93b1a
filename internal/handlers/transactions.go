package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/middleware"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/validation"
	"wastebin-backend/pkg/utils"
)

// CreateTransaction records a pending payment against a bin the caller owns.
func CreateTransaction(store TransactionStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTransactionRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		principal, _ := middleware.GetUserFromContext(r)
		if _, err := authorizeBin(r.Context(), store, principal, req.BinID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		now := time.Now().Unix()
		t := &models.Transaction{
			ID:            uuid.New().String(),
			BinID:         req.BinID,
			UserID:        principal.UserID,
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			Description:   req.Description,
			Status:        models.TransactionStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := store.CreateTransaction(r.Context(), t); err != nil {
			resp.Fail(w, r, err)
			return
		}

		resp.Log.Info().
			Str("transaction_id", t.ID).
			Str("bin_id", t.BinID).
			Float64("amount", t.Amount).
			Msg("💳 transaction created")
		utils.JSON(w, http.StatusCreated, t.ToResponse())
	}
}

// ListTransactions returns everything to admins. Other callers see the
// transactions they created and those recorded against their bins.
func ListTransactions(store TransactionStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.GetUserFromContext(r)

		var (
			txs []models.Transaction
			err error
		)
		if principal.IsAdmin() {
			txs, err = store.ListTransactions(r.Context())
		} else {
			txs, err = store.ListTransactionsForOwner(r.Context(), principal.UserID)
		}
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, models.ToTransactionResponses(txs))
	}
}

// GetTransaction is visible to the creator and to whoever may access the bin.
func GetTransaction(store TransactionStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			resp.Fail(w, r, apperr.Validation("Invalid transaction ID"))
			return
		}

		t, err := store.GetTransaction(r.Context(), id)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		principal, _ := middleware.GetUserFromContext(r)
		if !principal.IsAdmin() && t.UserID != principal.UserID {
			if _, err := authorizeBin(r.Context(), store, principal, t.BinID); err != nil {
				resp.Fail(w, r, err)
				return
			}
		}
		utils.Success(w, t.ToResponse())
	}
}

func ListBinTransactions(store TransactionStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "binId")
		if err := validation.BinID(binID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		principal, _ := middleware.GetUserFromContext(r)
		if _, err := authorizeBin(r.Context(), store, principal, binID); err != nil {
			resp.Fail(w, r, err)
			return
		}

		txs, err := store.ListTransactionsForBin(r.Context(), binID)
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		utils.Success(w, models.ToTransactionResponses(txs))
	}
}

// UpdateTransactionStatus is restricted to admins.
func UpdateTransactionStatus(store TransactionStore, resp utils.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.GetUserFromContext(r)
		if !principal.IsAdmin() {
			resp.Fail(w, r, apperr.Forbidden("Only admins can change transaction status"))
			return
		}

		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			resp.Fail(w, r, apperr.Validation("Invalid transaction ID"))
			return
		}
		var req models.UpdateTransactionStatusRequest
		if err := utils.Decode(r, &req); err != nil {
			resp.Fail(w, r, err)
			return
		}
		if err := validation.Struct(req); err != nil {
			resp.Fail(w, r, err)
			return
		}

		t, err := store.SetTransactionStatus(r.Context(), id, req.Status, time.Now().Unix())
		if err != nil {
			resp.Fail(w, r, err)
			return
		}
		resp.Log.Info().Str("transaction_id", id).Str("status", t.Status).Msg("transaction status updated")
		utils.Success(w, t.ToResponse())
	}
}
