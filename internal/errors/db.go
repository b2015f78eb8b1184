package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the key columns from "Key (a, b)=(x, y) ..." details.
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError classifies a reporting database write failure. Context errors
// become Timeout or Canceled, rejected rows become Validation (with the
// offending column when the server reports one), lost connections and
// server shutdowns become Unavailable, and other server errors Internal.
// Errors that did not come from the server are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "database write timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "database write canceled")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	table := pgErr.TableName
	if table == "" {
		table = "table"
	}

	switch {
	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code), pgerrcode.IsDataException(pgErr.Code):
		appErr := Wrap(err, ErrCodeValidation, "row rejected by "+table)
		appErr.Field = violatedField(pgErr)
		return appErr
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code),
		pgerrcode.IsInsufficientResources(pgErr.Code):
		return Unavailable(err, "reporting database unavailable")
	default:
		return Wrap(err, ErrCodeInternal, "database error")
	}
}

func violatedField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
