package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register database/sql drivers for the supported source types:
	// "pgx" (jackc/pgx), "postgres" (lib/pq) and "sqlite" (modernc, pure Go).
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SourceDBOptions configures a source connection pool.
type SourceDBOptions struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	// PingTimeout bounds the startup connectivity check. Zero skips the ping.
	PingTimeout time.Duration
}

// OpenSourceDB opens a pool for a data source. Fetches acquire one dedicated
// connection per attempt, so a small pool is enough.
func OpenSourceDB(ctx context.Context, opts SourceDBOptions) (*sql.DB, error) {
	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", opts.Driver, err)
	}
	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 2
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if opts.PingTimeout > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping %s source: %w", opts.Driver, err)
		}
	}
	return db, nil
}
