// Package scheduler provides the adapter that runs configured jobs on their
// cadence, outside the daily blackout window.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/data"
	"github.com/target/eligibility-sync/internal/domain/model"
	domainsched "github.com/target/eligibility-sync/internal/domain/scheduler"
	"github.com/target/eligibility-sync/internal/observability/metrics"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

// LoopJobName is the job name under which tick processing itself is guarded.
const LoopJobName = "Scheduler_Thread"

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Jobs      []model.JobDescriptor
	Executor  core.JobExecutor
	JobRunner core.JobRunner
	Blackout  domainsched.BlackoutWindow

	// Interval is the cadence of every job.
	Interval time.Duration
	// Tick is how often due entries are evaluated.
	Tick time.Duration
	// RunOnStart runs every job right after the startup blackout wait.
	RunOnStart bool
	// IgnoreBlackout runs jobs even inside the blackout window.
	IgnoreBlackout bool

	Clock   data.TimeProvider
	Sleep   data.Sleeper
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Runner drives the schedule: a startup wait, the first run, then the tick loop.
type Runner struct {
	jobs           []model.JobDescriptor
	executor       core.JobExecutor
	runner         core.JobRunner
	blackout       domainsched.BlackoutWindow
	interval       time.Duration
	tick           time.Duration
	runOnStart     bool
	ignoreBlackout bool
	clock          data.TimeProvider
	sleep          data.Sleeper
	metrics        statsd.Sink
	logger         *slog.Logger

	schedule *domainsched.Schedule
}

// NewRunner creates a scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}
	return &Runner{
		jobs:           opts.Jobs,
		executor:       opts.Executor,
		runner:         opts.JobRunner,
		blackout:       opts.Blackout,
		interval:       opts.Interval,
		tick:           opts.Tick,
		runOnStart:     opts.RunOnStart,
		ignoreBlackout: opts.IgnoreBlackout,
		clock:          opts.Clock,
		sleep:          opts.Sleep,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With("component", "scheduler"),
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Executor == nil {
		return errors.New("job executor is required")
	}
	if opts.JobRunner == nil {
		return errors.New("job runner is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 4 * time.Hour
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = &data.RealTimeProvider{}
	}
	if opts.Sleep == nil {
		opts.Sleep = data.SleepContext
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run waits out a blackout in progress, runs the first execution of every job
// when configured, then evaluates due entries every tick until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler",
		"jobs", len(r.jobs),
		"interval", r.interval,
		"tick", r.tick,
		"blackout", r.blackout.String(),
	)

	if err := r.WaitForBlackout(ctx); err != nil {
		return stopErr(err)
	}

	if r.runOnStart {
		r.RunAll(ctx)
	}

	// Cadence is measured from the end of the first run.
	if err := r.ResetSchedule(r.clock.Now()); err != nil {
		return err
	}

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler stopping", "reason", ctx.Err())
			return stopErr(ctx.Err())
		case <-ticker.C:
			r.runner.RunSafely(ctx, LoopJobName, r.Tick)
		}
	}
}

// WaitForBlackout sleeps until the blackout window containing now closes.
func (r *Runner) WaitForBlackout(ctx context.Context) error {
	if r.ignoreBlackout {
		return nil
	}
	now := r.clock.Now()
	wait := r.blackout.Remaining(now)
	if wait <= 0 {
		return nil
	}
	r.logger.InfoContext(ctx, "inside blackout window, waiting",
		"window", r.blackout.String(),
		"wait", wait.Round(time.Second),
		"until", now.Add(wait),
	)
	return r.sleep(ctx, wait)
}

// RunAll runs every job once, in configuration order, and returns the results.
// Jobs are skipped inside the blackout window unless it is ignored.
func (r *Runner) RunAll(ctx context.Context) []model.RunResult {
	results := make([]model.RunResult, 0, len(r.jobs))
	for _, job := range r.jobs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.runJob(ctx, job))
	}
	return results
}

// Tick evaluates due entries once. Every due entry advances to one interval
// past the clock, whether it ran or was skipped.
func (r *Runner) Tick(ctx context.Context) error {
	if r.schedule == nil {
		return errors.New("scheduler has not been started")
	}
	started := r.clock.Now()
	due := r.schedule.Due(started)
	tm := metrics.TickMetric{Due: len(due)}

	for _, entry := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := r.runJob(ctx, entry.Job)
		if res.Status == model.RunStatusSkipped {
			tm.Skipped++
		} else {
			tm.Ran++
		}
		entry.Advance(r.clock.Now())
	}

	tm.Duration = r.clock.Now().Sub(started)
	metrics.EmitTick(r.metrics, tm)
	if len(due) > 0 {
		r.logger.DebugContext(ctx, "scheduler tick", "due", len(due), "ran", tm.Ran, "skipped", tm.Skipped)
	}
	return nil
}

// ResetSchedule makes every job due one interval after start.
func (r *Runner) ResetSchedule(start time.Time) error {
	schedule, err := domainsched.NewSchedule(r.jobs, r.interval, start)
	if err != nil {
		return err
	}
	r.schedule = schedule
	return nil
}

// Schedule exposes the live schedule, nil before Run starts it.
func (r *Runner) Schedule() *domainsched.Schedule {
	return r.schedule
}

func (r *Runner) runJob(ctx context.Context, job model.JobDescriptor) model.RunResult {
	now := r.clock.Now()
	if !r.ignoreBlackout && r.blackout.Contains(now) {
		r.logger.InfoContext(ctx, "skipping job inside blackout window",
			"job", job.Name,
			"window", r.blackout.String(),
		)
		return model.RunResult{Job: job.Name, Status: model.RunStatusSkipped, StartedAt: now}
	}
	return r.runner.RunSafely(ctx, job.Name, func(ctx context.Context) error {
		_, err := r.executor.Execute(ctx, job)
		return err
	})
}

func stopErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
