package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsRetryable reports whether repeating the operation that produced err could
// plausibly succeed. Connection loss, timeouts, lock contention and unknown
// failures are retryable. SQL the server rejected as malformed or forbidden,
// bad data, configuration errors and caller cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || IsCanceled(err) || IsConfiguration(err) || IsValidation(err) {
		return false
	}
	if code := sqlState(err); code != "" {
		return retryableSQLState(code)
	}
	return true
}

// sqlState extracts the five character SQLSTATE from pgx or lib/pq errors.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func retryableSQLState(code string) bool {
	switch {
	case pgerrcode.IsSyntaxErrororAccessRuleViolation(code):
		// Class 42 covers syntax errors, undefined tables and insufficient privileges.
		return false
	case pgerrcode.IsDataException(code):
		return false
	case pgerrcode.IsInvalidAuthorizationSpecification(code):
		return false
	case pgerrcode.IsFeatureNotSupported(code):
		return false
	default:
		return true
	}
}
