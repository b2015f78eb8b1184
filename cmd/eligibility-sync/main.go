// Command eligibility-sync is the scheduler daemon: it reads recent intake rows
// from every configured source, enriches them through the eligibility API and
// writes the results to the reporting database every few hours.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/bootstrap"
	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		slog.Default().ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "eligibility-sync",
		Usage: "run the eligibility enrichment scheduler",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "test-alerts",
				Usage: "record a test alert and a simulated job failure, then exit",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "run every job once and exit",
			},
			&cli.BoolFlag{
				Name:    "ignore-blackout",
				Usage:   "run jobs inside the blackout window",
				Sources: cli.EnvVars("SCHEDULER_IGNORE_BLACKOUT"),
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger := slog.Default()
		return startupFailure(ctx, logger, bootstrap.FallbackAlertSink(logger), err)
	}

	logger, logCloser := bootstrap.InitLogger(bootstrap.LoggerConfig{
		Level: cfg.SlogLevel(),
		File:  cfg.LogFile,
		Text:  cfg.IsDev,
	})
	defer closeLogged(ctx, logger, "log file", logCloser.Close)
	logStartupInfo(ctx, logger, &cfg)

	alerting, err := bootstrap.NewAlerting(ctx, cfg, logger)
	if err != nil {
		return startupFailure(ctx, logger, bootstrap.FallbackAlertSink(logger), err)
	}
	defer closeLogged(ctx, logger, "alerting", alerting.Close)

	if cmd.Bool("test-alerts") {
		return alerting.SelfTest(ctx)
	}

	app, err := bootstrap.NewApp(ctx, cfg, alerting, logger, bootstrap.AppOptions{
		IgnoreBlackout: cmd.Bool("ignore-blackout"),
	})
	if err != nil {
		return startupFailure(ctx, logger, alerting.Sink, err)
	}
	defer closeLogged(ctx, logger, "app", app.Close)

	if cmd.Bool("once") {
		return summarizeRuns(ctx, logger, app.RunOnce(ctx))
	}
	return app.Run(ctx)
}

// startupFailure logs and alerts a failure that prevents the scheduler from starting.
func startupFailure(ctx context.Context, logger *slog.Logger, alerts core.AlertRecorder, err error) error {
	logger.ErrorContext(ctx, "startup failed", "severity", "critical", "error", err)
	host, _ := os.Hostname()
	alerts.Record(context.WithoutCancel(ctx), model.NewAlertRequest{
		Subject:  "Startup failure on " + host,
		Body:     fmt.Sprintf("The eligibility scheduler could not start.\n\nError details:\n%v", err),
		Severity: model.AlertSeverityCritical,
		Job:      "startup",
	})
	return err
}

// summarizeRuns logs one line per job and fails when any job failed.
func summarizeRuns(ctx context.Context, logger *slog.Logger, results []model.RunResult) error {
	failed := 0
	for _, res := range results {
		logger.InfoContext(ctx, "job finished",
			"job", res.Job,
			"status", res.Status.String(),
			"duration", res.Duration,
		)
		if res.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting eligibility-sync",
		"sources_file", cfg.SourcesFile,
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"interval", cfg.Scheduler.Interval,
		"blackout_start", cfg.Scheduler.BlackoutStart,
		"blackout_end", cfg.Scheduler.BlackoutEnd,
		"alerts_dir", cfg.Alerts.Dir,
	)
}

func closeLogged(ctx context.Context, logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.ErrorContext(ctx, "close failed", "resource", what, "error", err)
	}
}
