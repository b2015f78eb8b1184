package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/eligibility-sync/internal/domain/model"
	apperrors "github.com/target/eligibility-sync/internal/errors"
	"github.com/target/eligibility-sync/internal/observability/metrics"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

// Sleeper pauses for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy bounds the fetch retry loop. MaxRetries counts retries after
// the first attempt, so MaxRetries=3 allows four attempts.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	// Classify stops retrying errors that cannot succeed on a second attempt.
	Classify bool
}

// RetryState is the per-call view of the retry loop passed to logs and metrics.
type RetryState struct {
	Attempt   int
	LastErr   error
	Remaining int
}

// SQLFetcherOptions configures a SQLFetcher.
type SQLFetcherOptions struct {
	DB     *sql.DB
	Name   string
	Policy RetryPolicy
	// QueryTimeout bounds one attempt. Zero disables the bound.
	QueryTimeout time.Duration
	Sleep        Sleeper
	Clock        TimeProvider
	Metrics      statsd.Sink
	Logger       *slog.Logger
}

// SQLFetcher reads rows from one database/sql connection pool with bounded retry.
type SQLFetcher struct {
	db           *sql.DB
	name         string
	policy       RetryPolicy
	queryTimeout time.Duration
	sleep        Sleeper
	clock        TimeProvider
	metrics      statsd.Sink
	logger       *slog.Logger
}

// NewSQLFetcher creates a fetcher for a single data source.
func NewSQLFetcher(opts SQLFetcherOptions) *SQLFetcher {
	f := &SQLFetcher{
		db:           opts.DB,
		name:         opts.Name,
		policy:       opts.Policy,
		queryTimeout: opts.QueryTimeout,
		sleep:        opts.Sleep,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
	if f.policy.MaxRetries < 0 {
		f.policy.MaxRetries = 0
	}
	if f.sleep == nil {
		f.sleep = SleepContext
	}
	if f.clock == nil {
		f.clock = &RealTimeProvider{}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.logger = f.logger.With("component", "fetcher", "data_source", f.name)
	return f
}

// Name returns the data source name.
func (f *SQLFetcher) Name() string {
	return f.name
}

// Fetch runs q with bounded retry. Each attempt uses its own connection and
// read transaction; the connection is always returned to the pool.
func (f *SQLFetcher) Fetch(ctx context.Context, q model.Query, since time.Time) ([]model.RawRow, error) {
	if f.db == nil {
		return nil, apperrors.Configurationf("data source %s has no database handle", f.name)
	}

	maxAttempts := f.policy.MaxRetries + 1
	state := RetryState{Remaining: maxAttempts}
	for {
		state.Attempt++
		state.Remaining--
		started := f.clock.Now()

		rows, err := f.attempt(ctx, q, since)
		metrics.EmitFetchAttempt(f.metrics, metrics.FetchMetric{
			DataSource: f.name,
			Attempt:    state.Attempt,
			Duration:   f.clock.Now().Sub(started),
			Err:        err,
		})
		if err == nil {
			if state.Attempt > 1 {
				f.logger.InfoContext(ctx, "fetch recovered after retry", "attempt", state.Attempt, "rows", len(rows))
			}
			return rows, nil
		}
		state.LastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s interrupted: %w", f.name, ctx.Err())
		}
		if f.policy.Classify && !apperrors.IsRetryable(err) {
			f.logger.ErrorContext(ctx, "fetch failed with non-retryable error",
				"attempt", state.Attempt, "error", err)
			return nil, fmt.Errorf("fetch %s: %w", f.name, err)
		}
		if state.Remaining <= 0 {
			f.logger.ErrorContext(ctx, "fetch retries exhausted", "attempts", state.Attempt, "error", err)
			return nil, apperrors.Unavailable(err,
				fmt.Sprintf("fetch %s failed after %d attempts", f.name, state.Attempt))
		}

		f.logger.WarnContext(ctx, "fetch attempt failed, retrying",
			"attempt", state.Attempt,
			"remaining", state.Remaining,
			"delay", f.policy.Delay,
			"error", err,
		)
		if sleepErr := f.sleep(ctx, f.policy.Delay); sleepErr != nil {
			return nil, fmt.Errorf("fetch %s interrupted: %w", f.name, sleepErr)
		}
	}
}

func (f *SQLFetcher) attempt(ctx context.Context, q model.Query, since time.Time) (rows []model.RawRow, err error) {
	if f.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.queryTimeout)
		defer cancel()
	}

	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, sql.ErrConnDone) {
			f.logger.DebugContext(ctx, "close connection failed", "error", cerr)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				f.logger.DebugContext(ctx, "rollback failed", "error", rbErr)
			}
		}
	}()

	rows, err = queryRows(ctx, tx, q.SQL, q.Args(since)...)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return rows, nil
}

func queryRows(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]model.RawRow, error) {
	rs, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []model.RawRow
	for rs.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, v := range values {
			// Drivers may reuse byte buffers between rows.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, model.RawRow{Columns: cols, Values: values})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// FetcherSet routes a job to the fetcher of its data source. It implements
// core.RowFetcher.
type FetcherSet struct {
	fetchers map[string]*SQLFetcher
}

// NewFetcherSet indexes fetchers by name.
func NewFetcherSet(fetchers ...*SQLFetcher) *FetcherSet {
	set := &FetcherSet{fetchers: make(map[string]*SQLFetcher, len(fetchers))}
	for _, f := range fetchers {
		set.fetchers[f.Name()] = f
	}
	return set
}

// Fetch runs the job query against the job's data source.
func (s *FetcherSet) Fetch(ctx context.Context, job model.JobDescriptor, since time.Time) ([]model.RawRow, error) {
	f, ok := s.fetchers[job.DataSource]
	if !ok {
		return nil, apperrors.Configurationf("job %s references unknown data source %q", job.Name, job.DataSource)
	}
	return f.Fetch(ctx, job.Query, since)
}
