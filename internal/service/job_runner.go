package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
	obserrors "github.com/target/eligibility-sync/internal/observability/errors"
	"github.com/target/eligibility-sync/internal/observability/metrics"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

// JobRunnerOptions groups dependencies for JobRunner.
type JobRunnerOptions struct {
	Alerts  core.AlertRecorder // Required: where failures are reported
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink (StatsD-compatible)
	// LogFile is named in alert bodies so operators know where to look.
	LogFile  string
	Hostname func() (string, error)
	Now      func() time.Time
}

// FailureReport is the structured form of a failed run handed to the alert sink.
type FailureReport struct {
	Job     string
	Host    string
	At      time.Time
	Message string
	Stack   string
}

// Subject returns the alert subject for the report.
func (r FailureReport) Subject() string {
	return fmt.Sprintf("Error in %s on %s", r.Job, r.Host)
}

// Body renders the alert body for the report.
func (r FailureReport) Body(logFile string) string {
	return fmt.Sprintf(
		"An error occurred in the %s job on %s at %s.\n\n"+
			"Error details:\n%s\n\n"+
			"Stack trace:\n%s\n\n"+
			"Please check the %s file for more information.",
		r.Job, r.Host, r.At.Format("2006-01-02 15:04:05"), r.Message, r.Stack, logFile,
	)
}

// JobRunner is the failure-containment boundary around every unit of work.
type JobRunner struct {
	alerts  core.AlertRecorder
	logger  *slog.Logger
	metrics statsd.Sink
	logFile string
	host    string
	now     func() time.Time
}

var _ core.JobRunner = (*JobRunner)(nil)

// NewJobRunner constructs a JobRunner.
func NewJobRunner(opts JobRunnerOptions) (*JobRunner, error) {
	if opts.Alerts == nil {
		return nil, errors.New("AlertRecorder is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hostname := opts.Hostname
	if hostname == nil {
		hostname = os.Hostname
	}
	host, err := hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logFile := opts.LogFile
	if logFile == "" {
		logFile = "application log"
	}
	return &JobRunner{
		alerts:  opts.Alerts,
		logger:  logger.With("component", "job_runner"),
		metrics: opts.Metrics,
		logFile: logFile,
		host:    host,
		now:     now,
	}, nil
}

// Host returns the host name used in alert subjects.
func (r *JobRunner) Host() string {
	return r.host
}

// RunSafely runs work and never lets an error or panic escape. Failures are
// logged with their stack and recorded as one alert. Work that stops with
// context.Canceled after ctx is done is treated as an interruption and not alerted.
func (r *JobRunner) RunSafely(ctx context.Context, job string, work func(context.Context) error) (result model.RunResult) {
	started := r.now()
	result = model.RunResult{Job: job, StartedAt: started}
	log := r.logger.With("job", job)

	defer func() {
		result.Duration = r.now().Sub(started)
		metrics.EmitJobRun(r.metrics, metrics.JobRunMetric{
			Job:      job,
			Result:   runMetricResult(result.Status),
			Panicked: result.Panicked,
			Duration: result.Duration,
			Err:      result.Err,
		})
	}()

	stack, panicked, err := r.invoke(ctx, work)
	switch {
	case err == nil:
		result.Status = model.RunStatusSucceeded
		log.InfoContext(ctx, "job completed", "duration", r.now().Sub(started))
		return result
	case !panicked && ctx.Err() != nil && errors.Is(err, context.Canceled):
		result.Status = model.RunStatusInterrupted
		result.Err = err
		log.WarnContext(ctx, "job interrupted by shutdown", "error", err)
		return result
	}

	result.Status = model.RunStatusFailed
	result.Err = err
	result.Panicked = panicked

	report := FailureReport{
		Job:     job,
		Host:    r.host,
		At:      r.now(),
		Message: err.Error(),
		Stack:   stack,
	}
	log.ErrorContext(ctx, "job failed",
		"error", err,
		"error_class", obserrors.Classify(err),
		"panic", panicked,
		"stack", stack,
	)
	result.AlertRecorded = r.record(ctx, log, model.NewAlertRequest{
		Subject:  report.Subject(),
		Body:     report.Body(r.logFile),
		Severity: model.AlertSeverityCritical,
		Job:      job,
	})
	return result
}

// record hands the alert to the recorder, containing a misbehaving recorder.
func (r *JobRunner) record(ctx context.Context, log *slog.Logger, req model.NewAlertRequest) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "alert recorder panicked", "panic", fmt.Sprint(rec))
			ok = false
		}
	}()
	return r.alerts.Record(ctx, req)
}

// invoke calls work, recovering a panic into an error. The stack is the
// panicking goroutine's stack, or the caller's stack for returned errors.
func (r *JobRunner) invoke(ctx context.Context, work func(context.Context) error) (stack string, panicked bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			stack = string(debug.Stack())
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", rec)
			}
		}
	}()
	if work == nil {
		return string(debug.Stack()), false, errors.New("no work function provided")
	}
	if err = work(ctx); err != nil {
		stack = string(debug.Stack())
	}
	return stack, false, err
}

func runMetricResult(status model.RunStatus) string {
	switch status {
	case model.RunStatusSucceeded:
		return metrics.ResultSuccess
	case model.RunStatusInterrupted:
		return metrics.ResultInterrupted
	case model.RunStatusSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultError
	}
}
