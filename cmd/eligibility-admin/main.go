// Command eligibility-admin holds operator tasks for an eligibility-sync deployment.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/bootstrap"
)

const defaultMigrationTimeout = 5 * time.Minute

// admin is the state shared by every subcommand.
type admin struct {
	cfg    config.AppConfig
	logger *slog.Logger
	out    io.Writer
	in     io.Reader
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &admin{out: os.Stdout, in: os.Stdin}
	if err := a.command().Run(ctx, os.Args); err != nil {
		logger := a.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func (a *admin) command() *cli.Command {
	return &cli.Command{
		Name:  "eligibility-admin",
		Usage: "operator tasks for eligibility-sync",
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return ctx, err
			}
			a.cfg = cfg
			a.logger, _ = bootstrap.InitLogger(bootstrap.LoggerConfig{
				Level:  cfg.SlogLevel(),
				Stdout: os.Stderr,
				Text:   cfg.IsDev,
			})
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "run reporting database migrations",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "timeout", Usage: "migration timeout", Value: defaultMigrationTimeout},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return a.runMigrations(ctx, cmd.Duration("timeout"))
				},
			},
			{
				Name:  "list-alerts",
				Usage: "show recent entries of the alert history log",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "maximum entries to show (0 shows all)", Value: 20},
					&cli.StringFlag{Name: "subject", Usage: "only show subjects containing this text"},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					return a.listAlerts(listAlertsOptions{Limit: cmd.Int("limit"), Subject: cmd.String("subject")})
				},
			},
			{
				Name:  "clear-alert-keys",
				Usage: "clear alert forwarding rate-limit keys from Redis",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "list the keys without deleting them"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return a.clearAlertKeys(ctx, clearOptions{DryRun: cmd.Bool("dry-run"), Yes: cmd.Bool("yes")})
				},
			},
			{
				Name:      "run-job",
				Usage:     "run one configured job now, ignoring the blackout window",
				ArgsUsage: "<job name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return a.runJob(ctx, cmd.Args().First())
				},
			},
		},
	}
}
