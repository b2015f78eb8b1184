package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/adapters/eligibility"
	"github.com/target/eligibility-sync/internal/adapters/scheduler"
	"github.com/target/eligibility-sync/internal/data"
	"github.com/target/eligibility-sync/internal/domain/model"
	domainsched "github.com/target/eligibility-sync/internal/domain/scheduler"
	apperrors "github.com/target/eligibility-sync/internal/errors"
	"github.com/target/eligibility-sync/internal/service"
	"github.com/target/eligibility-sync/internal/service/alertsink"
)

// SelfTestJobName is the job under which the alert self-test simulates a failure.
const SelfTestJobName = "TEST_ERROR"

// Alerting is the alert sink and the failure-containment runner built on it.
// It needs no database, so it is available before anything else can fail.
type Alerting struct {
	Sink          *alertsink.Sink
	Runner        *service.JobRunner
	Observability ObservabilityContainer

	limiter io.Closer
	logger  *slog.Logger
}

// NewAlerting wires metrics, secondary transports, the forward limiter, the
// alert sink and the job runner.
func NewAlerting(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*Alerting, error) {
	if logger == nil {
		logger = slog.Default()
	}
	obs := BuildObservability(cfg, logger)
	limiter, limiterCloser := BuildLimiter(ctx, cfg, logger)
	sink := BuildAlertSink(AlertSinkOptions{
		Config:    cfg.Alerts,
		Forwarder: obs.Notifier,
		Limiter:   limiter,
		Metrics:   obs.Metrics,
		Logger:    logger,
	})
	runner, err := service.NewJobRunner(service.JobRunnerOptions{
		Alerts:  sink,
		Logger:  logger,
		Metrics: obs.Metrics,
		LogFile: cfg.LogFileHint(),
	})
	if err != nil {
		return nil, errors.Join(err, limiterCloser.Close(), obs.Close())
	}
	return &Alerting{
		Sink:          sink,
		Runner:        runner,
		Observability: obs,
		limiter:       limiterCloser,
		logger:        logger,
	}, nil
}

// SelfTest records a test alert, then routes a simulated failure through the
// job runner so both alert paths are exercised.
func (a *Alerting) SelfTest(ctx context.Context) error {
	a.logger.InfoContext(ctx, "testing alert system")

	body := fmt.Sprintf(
		"This is a test alert from the scheduler on %s.\n"+
			"Generated at: %s\n\n"+
			"System: %s/%s\n"+
			"Go: %s\n\n"+
			"If you see this file, the alert system is working correctly.",
		a.Sink.Host(), time.Now().Format(time.DateTime), runtime.GOOS, runtime.GOARCH, runtime.Version(),
	)
	if !a.Sink.Record(ctx, model.NewAlertRequest{Subject: "Test Alert", Body: body, Severity: model.AlertSeverityInfo}) {
		return errors.New("test alert could not be written")
	}
	a.logger.InfoContext(ctx, "test alert created")

	res := a.Runner.RunSafely(ctx, SelfTestJobName, func(context.Context) error {
		return errors.New("this is a simulated error to test the error handling system")
	})
	if !res.AlertRecorded {
		return errors.New("simulated error alert could not be written")
	}

	dir, err := filepath.Abs(a.Sink.Dir())
	if err != nil {
		dir = a.Sink.Dir()
	}
	a.logger.InfoContext(ctx, "test error alert triggered", "alerts_dir", dir)
	return nil
}

// Close releases the limiter and the metrics socket.
func (a *Alerting) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.limiter.Close(), a.Observability.Close())
}

// AppOptions tunes how the daemon runs.
type AppOptions struct {
	// IgnoreBlackout runs jobs inside the blackout window.
	IgnoreBlackout bool
}

// JobScheduler drives the configured jobs. *scheduler.Runner implements it.
type JobScheduler interface {
	Run(ctx context.Context) error
	RunAll(ctx context.Context) []model.RunResult
}

// App is the fully wired daemon.
type App struct {
	*Alerting

	Config    config.AppConfig
	DB        *sql.DB
	Sources   *SourceSet
	Pipeline  *service.Pipeline
	Scheduler JobScheduler

	logger *slog.Logger
}

// NewApp loads the sources file, opens the reporting database and wires the
// pipeline and scheduler around alerting. Problems with the sources file or the
// API settings are returned as configuration errors. An unreachable reporting
// database is not an error: migrations and token discovery happen on the first
// job run, and their failures are alerted as job failures.
func NewApp(ctx context.Context, cfg config.AppConfig, alerting *Alerting, logger *slog.Logger, opts AppOptions) (_ *App, err error) {
	if alerting == nil {
		return nil, errors.New("alerting is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Alerting: alerting, Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			err = errors.Join(err, app.closeResources())
		}
	}()

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "load sources")
	}
	metricsSink := alerting.Observability.Metrics
	app.Sources, err = OpenSources(ctx, SourceOptions{
		Sources: sources,
		Fetch:   cfg.Fetch,
		Metrics: metricsSink,
		Logger:  logger,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "open sources")
	}

	app.DB, err = OpenDB(ctx, DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "reporting database")
	}
	var migrateFn func(context.Context) error
	if cfg.Postgres.RunMigrationsOnStart {
		db := app.DB
		migrateFn = func(ctx context.Context) error { return RunMigrations(ctx, db, logger) }
	}

	checker, extractor, err := buildEligibility(cfg.Eligibility, logger)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "eligibility api")
	}

	app.Pipeline, err = service.NewPipeline(service.PipelineOptions{
		Fetcher:   app.Sources.Fetchers,
		Checker:   checker,
		Extractor: extractor,
		Store: data.NewResultRepo(app.DB, data.ResultRepoOptions{
			WriteTimeout: cfg.Postgres.WriteTimeout,
			Migrate:      migrateFn,
			Logger:       logger,
		}),
		Snapshots: data.NewCSVSnapshotWriter(data.SnapshotWriterOptions{
			Root:   cfg.Pipeline.SnapshotDir,
			MaxAge: cfg.Pipeline.SnapshotMaxAge,
			Logger: logger,
		}),
		Alerts:             alerting.Sink,
		Lookback:           cfg.Pipeline.Lookback,
		APITimeout:         cfg.Eligibility.Timeout,
		AlertOnDroppedRows: cfg.Pipeline.AlertOnDroppedRows,
		Metrics:            metricsSink,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}

	runner, err := buildScheduler(cfg.Scheduler, app, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "scheduler")
	}
	app.Scheduler = runner
	return app, nil
}

func buildEligibility(cfg config.EligibilityAPIConfig, logger *slog.Logger) (*eligibility.Client, *eligibility.JMESPathExtractor, error) {
	client, err := eligibility.NewClient(eligibility.ClientConfig{
		URL:          cfg.URL,
		Timeout:      cfg.Timeout,
		TokenURL:     cfg.TokenURL,
		IssuerURL:    cfg.IssuerURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Token:        cfg.Token,
		ProviderID:   cfg.ProviderID,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	extractor, err := eligibility.NewJMESPathExtractor(eligibility.Expressions{
		Class:   cfg.ClassExpr,
		Outcome: cfg.OutcomeExpr,
		Note:    cfg.NoteExpr,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("eligibility client configured",
		"url", cfg.URL,
		"oauth2", cfg.UsesClientCredentials(),
		"discover_token_url", cfg.TokenURL == "" && cfg.IssuerURL != "",
		"timeout", cfg.Timeout,
	)
	return client, extractor, nil
}

func buildScheduler(cfg config.SchedulerConfig, app *App, opts AppOptions) (*scheduler.Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	window, err := domainsched.NewBlackoutWindow(cfg.BlackoutStart, cfg.BlackoutEnd, loc)
	if err != nil {
		return nil, err
	}
	return scheduler.NewRunner(scheduler.RunnerOptions{
		Jobs:           app.Sources.Jobs,
		Executor:       app.Pipeline,
		JobRunner:      app.Runner,
		Blackout:       window,
		Interval:       cfg.Interval,
		Tick:           cfg.Tick,
		RunOnStart:     cfg.RunOnStart,
		IgnoreBlackout: opts.IgnoreBlackout,
		Metrics:        app.Observability.Metrics,
		Logger:         app.logger,
	})
}

// Run drives the scheduler until ctx is cancelled, then records the shutdown
// alert when configured. A clean stop returns nil.
func (a *App) Run(ctx context.Context) error {
	err := a.Scheduler.Run(ctx)
	a.logger.InfoContext(ctx, "scheduler stopped")

	if ctx.Err() != nil && a.Config.Alerts.NotifyOnShutdown {
		a.Sink.Record(context.WithoutCancel(ctx), model.NewAlertRequest{
			Subject:  "Scheduler stopped on " + a.Sink.Host(),
			Body:     fmt.Sprintf("The eligibility scheduler on %s stopped at %s.", a.Sink.Host(), time.Now().Format(time.DateTime)),
			Severity: model.AlertSeverityInfo,
		})
	}
	return err
}

// RunOnce runs every job once and returns the results.
func (a *App) RunOnce(ctx context.Context) []model.RunResult {
	return a.Scheduler.RunAll(ctx)
}

// RunJob runs the named job once, ignoring the blackout window.
func (a *App) RunJob(ctx context.Context, name string) (model.RunResult, error) {
	for _, job := range a.Sources.Jobs {
		if strings.EqualFold(job.Name, name) {
			return a.Runner.RunSafely(ctx, job.Name, func(ctx context.Context) error {
				_, err := a.Pipeline.Execute(ctx, job)
				return err
			}), nil
		}
	}
	return model.RunResult{}, apperrors.NotFoundf("job %q is not configured", name)
}

// Close releases the source pools and the reporting database. Alerting is
// owned by the caller that built it.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.closeResources()
}

func (a *App) closeResources() error {
	var errs []error
	if a.Sources != nil {
		errs = append(errs, a.Sources.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
