package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"wastebin-backend/internal/apperr"
)

// errAmbiguous marks a single-row fetch that matched more than one row.
var errAmbiguous = errors.New("multiple rows matched a single-row fetch")

// Translate is the only place that inspects driver-specific errors. what
// names the resource for the caller-facing message, e.g. "Bin".
func Translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, what+" not found", err)
	}
	if errors.Is(err, errAmbiguous) {
		return apperr.Wrap(apperr.KindConflict, what+" lookup matched more than one record", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apperr.Wrap(apperr.KindConflict, what+" already exists", err)
		case "foreign_key_violation":
			return apperr.Wrap(apperr.KindConflict, what+" is linked to records that prevent this change", err)
		case "check_violation", "not_null_violation", "invalid_text_representation", "numeric_value_out_of_range":
			return apperr.Wrap(apperr.KindValidation, what+" has an invalid value", err)
		case "insufficient_privilege":
			return apperr.Wrap(apperr.KindForbidden, "Permission denied", err)
		}
	}
	return apperr.Upstream(what+" storage failure", err)
}

// getOne runs a single-row query and distinguishes zero matches from
// more than one.
func getOne[T any](ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*T, error) {
	var rows []T
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, sql.ErrNoRows
	case 1:
		return &rows[0], nil
	default:
		return nil, errAmbiguous
	}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
