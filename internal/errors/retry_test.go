package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("connection reset by peer"), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: fmt.Errorf("fetch: %w", context.Canceled), want: false},
		{name: "configuration", err: Configurationf("no dsn"), want: false},
		{name: "syntax error", err: &pgconn.PgError{Code: pgerrcode.SyntaxError}, want: false},
		{name: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, want: false},
		{name: "insufficient privilege", err: &pgconn.PgError{Code: pgerrcode.InsufficientPrivilege}, want: false},
		{name: "invalid datetime", err: &pgconn.PgError{Code: pgerrcode.InvalidDatetimeFormat}, want: false},
		{name: "bad password", err: &pgconn.PgError{Code: pgerrcode.InvalidPassword}, want: false},
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: pgerrcode.AdminShutdown}, want: true},
		{name: "pq syntax error", err: &pq.Error{Code: "42601"}, want: false},
		{name: "pq connection failure", err: fmt.Errorf("query: %w", &pq.Error{Code: "08006"}), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
