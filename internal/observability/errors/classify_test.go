package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/eligibility-sync/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "app code", err: apperrors.Unavailable(goerrors.New("down"), "fetch"), want: "unavailable"},
		{name: "pg error", err: fmt.Errorf("query: %w", &pgconn.PgError{Code: "42601"}), want: "pgconn_pgerror"},
		{name: "plain", err: goerrors.New("boom"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
