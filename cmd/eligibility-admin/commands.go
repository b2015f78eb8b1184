package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/eligibility-sync/internal/bootstrap"
	"github.com/target/eligibility-sync/internal/domain/model"
	apperrors "github.com/target/eligibility-sync/internal/errors"
	"github.com/target/eligibility-sync/internal/service/alertsink"
)

func (a *admin) runMigrations(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: a.cfg.Postgres, Logger: a.logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			a.logger.Warn("db close failed", "error", closeErr)
		}
	}()

	a.logger.InfoContext(ctx, "running database migrations")
	return bootstrap.RunMigrations(ctx, db, a.logger)
}

type listAlertsOptions struct {
	Limit   int
	Subject string
}

func (a *admin) listAlerts(opts listAlertsOptions) error {
	sink := bootstrap.BuildAlertSink(bootstrap.AlertSinkOptions{Config: a.cfg.Alerts, Logger: a.logger})
	entries, err := alertsink.ReadHistory(sink.HistoryPath(), time.Local)
	if errors.Is(err, os.ErrNotExist) {
		return writef(a.out, "No alerts recorded in %s\n", sink.HistoryPath())
	}
	if err != nil {
		return fmt.Errorf("read alert history: %w", err)
	}
	return renderAlerts(a.out, filterAlerts(entries, opts))
}

// filterAlerts keeps matching entries and returns the newest Limit, newest first.
func filterAlerts(entries []model.AlertHistoryEntry, opts listAlertsOptions) []model.AlertHistoryEntry {
	needle := strings.ToLower(strings.TrimSpace(opts.Subject))
	out := make([]model.AlertHistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if needle != "" && !strings.Contains(strings.ToLower(entries[i].Subject), needle) {
			continue
		}
		out = append(out, entries[i])
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

func renderAlerts(w io.Writer, entries []model.AlertHistoryEntry) error {
	if len(entries) == 0 {
		return writef(w, "No matching alerts\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "TIMESTAMP\tSUBJECT"); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", e.Timestamp.Format(time.DateTime), e.Subject); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type clearOptions struct {
	DryRun bool
	Yes    bool
}

func (a *admin) clearAlertKeys(ctx context.Context, opts clearOptions) error {
	if !a.cfg.Redis.Enabled {
		return writef(a.out, "Redis is not enabled; forwarding limits are held in process and reset on restart\n")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: a.cfg.Redis, Logger: a.logger})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			a.logger.Warn("redis close failed", "error", closeErr)
		}
	}()
	repo := bootstrap.NewCacheRepo(client, a.cfg.Redis)

	keys, err := repo.Keys(ctx, alertsink.ForwardKeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return writef(a.out, "No alert forwarding keys found in Redis\n")
	}
	if opts.DryRun {
		for _, k := range keys {
			if err := writef(a.out, "%s\n", k); err != nil {
				return err
			}
		}
		return writef(a.out, "Dry-run: would delete %d keys\n", len(keys))
	}
	if !opts.Yes {
		if err := confirm(a.in, a.out, fmt.Sprintf("About to delete %d alert forwarding keys.", len(keys))); err != nil {
			return err
		}
	}

	deleted, err := repo.DeleteByPrefix(ctx, alertsink.ForwardKeyPrefix)
	if err != nil {
		return err
	}
	return writef(a.out, "Deleted %d/%d keys\n", deleted, len(keys))
}

func (a *admin) runJob(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("job name is required")
	}

	alerting, err := bootstrap.NewAlerting(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := alerting.Close(); closeErr != nil {
			a.logger.Warn("alerting close failed", "error", closeErr)
		}
	}()

	app, err := bootstrap.NewApp(ctx, a.cfg, alerting, a.logger, bootstrap.AppOptions{IgnoreBlackout: true})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			a.logger.Warn("app close failed", "error", closeErr)
		}
	}()

	res, err := app.RunJob(ctx, name)
	if apperrors.IsNotFound(err) {
		names := make([]string, 0, len(app.Sources.Jobs))
		for _, job := range app.Sources.Jobs {
			names = append(names, job.Name)
		}
		return fmt.Errorf("%w (configured jobs: %s)", err, strings.Join(names, ", "))
	}
	if err != nil {
		return err
	}
	if err := writef(a.out, "%s: %s in %s\n", res.Job, res.Status, res.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("job %s failed: %w", res.Job, res.Err)
	}
	return nil
}

// confirm asks for a y/yes answer on in.
func confirm(in io.Reader, out io.Writer, intro string) error {
	if err := writef(out, "%s\nContinue? [y/N]: ", intro); err != nil {
		return err
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("aborted by user")
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
