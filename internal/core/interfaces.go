package core

import (
	"context"
	"time"

	"github.com/target/eligibility-sync/internal/domain/model"
)

// This file contains the ports between the job harness and its adapters.
// Services depend on these interfaces, never on concrete implementations.

// RowFetcher reads rows for a job from the job's data source.
type RowFetcher interface {
	// Fetch runs the job query for rows changed at or after since. Implementations
	// retry transient failures and return an error once retries are exhausted.
	Fetch(ctx context.Context, job model.JobDescriptor, since time.Time) ([]model.RawRow, error)
}

// EligibilityChecker calls the external eligibility API for a single record.
type EligibilityChecker interface {
	// Check returns the raw JSON response body for the record.
	Check(ctx context.Context, rec model.IntakeRecord) ([]byte, error)
}

// OutcomeExtractor pulls the eligibility decision out of an API response.
type OutcomeExtractor interface {
	Extract(raw []byte) (model.Outcome, error)
}

// ResultStore persists intake rows and enriched results to the reporting database.
type ResultStore interface {
	// SaveIntake upserts normalized intake rows and returns the number written.
	SaveIntake(ctx context.Context, source model.SourceID, records []model.IntakeRecord) (int, error)
	// SaveResults upserts eligibility results and returns the number written.
	SaveResults(ctx context.Context, source model.SourceID, results []model.EligibilityResult) (int, error)
}

// SnapshotRequest describes one CSV audit snapshot.
type SnapshotRequest struct {
	// Dir is the per-source directory under the snapshot root.
	Dir string
	// Prefix names the snapshot kind, e.g. intake or results.
	Prefix string
	Header []string
	Rows   [][]string
	At     time.Time
}

// SnapshotWriter writes audit snapshots of a pipeline stage.
type SnapshotWriter interface {
	// Write stores the snapshot and returns its path.
	Write(ctx context.Context, req SnapshotRequest) (string, error)
}

// AlertRecorder durably records an alert. Recording never fails the caller:
// the return value only reports whether the alert file was written.
type AlertRecorder interface {
	Record(ctx context.Context, req model.NewAlertRequest) bool
}

// AlertForwarder fans a recorded alert out to secondary transports such as
// Slack, PagerDuty or email.
type AlertForwarder interface {
	Forward(ctx context.Context, alert model.Alert) error
}

// JobRunner executes work inside the failure-containment boundary.
type JobRunner interface {
	// RunSafely runs work and converts any error or panic into an alert.
	// It never panics and never returns an error.
	RunSafely(ctx context.Context, job string, work func(context.Context) error) model.RunResult
}

// JobExecutor runs the fetch-enrich-persist pipeline for one job.
type JobExecutor interface {
	Execute(ctx context.Context, job model.JobDescriptor) (model.PipelineStats, error)
}

// AlertLimiter decides whether an alert subject may be forwarded again.
type AlertLimiter interface {
	// Allow returns true when the subject was not forwarded within window.
	Allow(ctx context.Context, subject string, window time.Duration) bool
}
