package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/data"
	"github.com/target/eligibility-sync/internal/domain/model"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

// SourceSet is the opened data sources and the jobs reading from them.
type SourceSet struct {
	Fetchers *data.FetcherSet
	Jobs     []model.JobDescriptor

	dbs []*sql.DB
}

// Close closes every source pool.
func (s *SourceSet) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, db := range s.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SourceOptions configures OpenSources.
type SourceOptions struct {
	Sources []config.SourceConfig
	Fetch   config.FetchConfig
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// OpenSources builds a job descriptor and a retrying fetcher per source.
// Pools are opened concurrently. An invalid source is a configuration error;
// an unreachable one is only logged because every fetch retries on its own.
func OpenSources(ctx context.Context, opts SourceOptions) (*SourceSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs := make([]model.JobDescriptor, len(opts.Sources))
	for i := range opts.Sources {
		job, err := opts.Sources[i].JobDescriptor()
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", opts.Sources[i].Name, err)
		}
		jobs[i] = job
	}

	var (
		mu       sync.Mutex
		fetchers = make([]*data.SQLFetcher, len(opts.Sources))
		set      = &SourceSet{Jobs: jobs}
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := range opts.Sources {
		src := opts.Sources[i]
		g.Go(func() error {
			db, err := data.OpenSourceDB(gctx, data.SourceDBOptions{
				Driver:       src.Driver,
				DSN:          src.DSN,
				MaxOpenConns: src.MaxOpenConns,
			})
			if err != nil {
				return fmt.Errorf("source %q: %w", src.Name, err)
			}
			mu.Lock()
			set.dbs = append(set.dbs, db)
			mu.Unlock()

			pingCtx, cancel := context.WithTimeout(gctx, connectTimeout)
			defer cancel()
			if pingErr := db.PingContext(pingCtx); pingErr != nil {
				logger.WarnContext(ctx, "data source unreachable at startup",
					"data_source", src.Name,
					"driver", src.Driver,
					"error", pingErr,
				)
			}

			fetchers[i] = data.NewSQLFetcher(data.SQLFetcherOptions{
				DB:   db,
				Name: src.Name,
				Policy: data.RetryPolicy{
					MaxRetries: opts.Fetch.MaxRetries,
					Delay:      opts.Fetch.RetryDelay,
					Classify:   opts.Fetch.Classify,
				},
				QueryTimeout: opts.Fetch.QueryTimeout,
				Metrics:      opts.Metrics,
				Logger:       logger,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Join(err, set.Close())
	}

	set.Fetchers = data.NewFetcherSet(fetchers...)
	logger.InfoContext(ctx, "data sources opened", "sources", len(fetchers))
	return set, nil
}
