package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
	apperrors "github.com/target/eligibility-sync/internal/errors"
	"github.com/target/eligibility-sync/internal/observability/metrics"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

const (
	snapshotPrefixIntake  = "intake"
	snapshotPrefixResults = "results"

	defaultLookback   = 4 * time.Hour
	defaultAPITimeout = 30 * time.Second
)

// PipelineOptions groups dependencies for Pipeline.
type PipelineOptions struct {
	Fetcher   core.RowFetcher         // Required: rows from the job's data source
	Checker   core.EligibilityChecker // Required: eligibility API client
	Extractor core.OutcomeExtractor   // Required: response field extraction
	Store     core.ResultStore        // Required: reporting database
	Snapshots core.SnapshotWriter     // Required: CSV audit snapshots
	// Alerts receives the dropped-rows warning. Nil disables it.
	Alerts core.AlertRecorder

	Lookback   time.Duration
	APITimeout time.Duration
	// AlertOnDroppedRows records one warning alert per run that dropped rows.
	AlertOnDroppedRows bool

	Now     func() time.Time
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Pipeline runs fetch, dedupe, normalize, enrich and persist for one job.
type Pipeline struct {
	fetcher   core.RowFetcher
	checker   core.EligibilityChecker
	extractor core.OutcomeExtractor
	store     core.ResultStore
	snapshots core.SnapshotWriter
	alerts    core.AlertRecorder

	lookback       time.Duration
	apiTimeout     time.Duration
	alertOnDropped bool

	now     func() time.Time
	metrics statsd.Sink
	logger  *slog.Logger
}

var _ core.JobExecutor = (*Pipeline)(nil)

// NewPipeline validates options and constructs a Pipeline.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	var errs []error
	if opts.Fetcher == nil {
		errs = append(errs, errors.New("RowFetcher is required"))
	}
	if opts.Checker == nil {
		errs = append(errs, errors.New("EligibilityChecker is required"))
	}
	if opts.Extractor == nil {
		errs = append(errs, errors.New("OutcomeExtractor is required"))
	}
	if opts.Store == nil {
		errs = append(errs, errors.New("ResultStore is required"))
	}
	if opts.Snapshots == nil {
		errs = append(errs, errors.New("SnapshotWriter is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	p := &Pipeline{
		fetcher:        opts.Fetcher,
		checker:        opts.Checker,
		extractor:      opts.Extractor,
		store:          opts.Store,
		snapshots:      opts.Snapshots,
		alerts:         opts.Alerts,
		lookback:       opts.Lookback,
		apiTimeout:     opts.APITimeout,
		alertOnDropped: opts.AlertOnDroppedRows,
		now:            opts.Now,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
	}
	if p.lookback <= 0 {
		p.lookback = defaultLookback
	}
	if p.apiTimeout <= 0 {
		p.apiTimeout = defaultAPITimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Execute runs the pipeline for job. A run that fetches nothing writes nothing.
// Per-row problems drop the row; only fetch, persistence and snapshot
// failures and cancellation abort the run.
func (p *Pipeline) Execute(ctx context.Context, job model.JobDescriptor) (stats model.PipelineStats, err error) {
	started := p.now()
	stats = model.PipelineStats{
		WindowStart: started.Add(-p.lookback),
		Dropped:     make(map[model.DropReason]int),
	}
	log := p.logger.With("job", job.Name, "source", job.Source.String())
	defer func() { stats.Duration = p.now().Sub(started) }()

	normalizer, nerr := NormalizerFor(job.Source)
	if nerr != nil {
		return stats, nerr
	}

	rows, err := p.fetcher.Fetch(ctx, job, stats.WindowStart)
	if err != nil {
		return stats, fmt.Errorf("fetch %s: %w", job.Name, err)
	}
	stats.Fetched = len(rows)
	if len(rows) == 0 {
		log.InfoContext(ctx, "no new rows", "window_start", stats.WindowStart)
		return stats, nil
	}

	rows = DeduplicateRows(rows, job.KeyColumns)
	stats.Unique = len(rows)

	records := make([]model.IntakeRecord, 0, len(rows))
	for i, row := range rows {
		rec, nerr := normalizer.Normalize(job, row)
		if nerr != nil {
			stats.Dropped[model.DropReasonMissingKey]++
			log.WarnContext(ctx, "dropping row", "row", i, "reason", model.DropReasonMissingKey, "error", nerr)
			continue
		}
		rec.InsertedAt = started
		records = append(records, rec)
	}

	if len(records) > 0 {
		if perr := p.prepare(ctx); perr != nil {
			return stats, fmt.Errorf("prepare %s: %w", job.Name, perr)
		}
		n, serr := p.store.SaveIntake(ctx, job.Source, records)
		if serr != nil {
			logRejectedColumn(ctx, log, serr)
			return stats, fmt.Errorf("save intake %s: %w", job.Name, serr)
		}
		stats.Intake = n
		path, werr := p.writeSnapshot(ctx, job, snapshotPrefixIntake, model.IntakeColumns(), intakeRows(records), started)
		if werr != nil {
			return stats, werr
		}
		stats.IntakeFile = path
	}

	results, err := p.enrich(ctx, log, records, &stats)
	if err != nil {
		return stats, err
	}

	if len(results) > 0 {
		n, serr := p.store.SaveResults(ctx, job.Source, results)
		if serr != nil {
			logRejectedColumn(ctx, log, serr)
			return stats, fmt.Errorf("save results %s: %w", job.Name, serr)
		}
		stats.Results = n
		path, werr := p.writeSnapshot(ctx, job, snapshotPrefixResults, model.ResultColumns(job.Source), resultRows(results), started)
		if werr != nil {
			return stats, werr
		}
		stats.ResultsFile = path
	}

	metrics.EmitRowsProcessed(p.metrics, job.Name, stats.Fetched, stats.Results)
	metrics.EmitRowsDropped(p.metrics, job.Name, dropCounts(stats.Dropped))
	log.InfoContext(ctx, "pipeline completed",
		"fetched", stats.Fetched,
		"unique", stats.Unique,
		"intake", stats.Intake,
		"results", stats.Results,
		"dropped", stats.TotalDropped(),
	)

	if stats.TotalDropped() > 0 && p.alertOnDropped && p.alerts != nil {
		p.alerts.Record(ctx, model.NewAlertRequest{
			Subject:  fmt.Sprintf("Rows dropped in %s", job.Name),
			Body:     droppedBody(job, stats),
			Severity: model.AlertSeverityWarning,
			Job:      job.Name,
		})
	}
	return stats, nil
}

// enrich normalizes dates, calls the eligibility API and extracts the outcome
// for every record. Cancellation is only observed between rows.
func (p *Pipeline) enrich(
	ctx context.Context,
	log *slog.Logger,
	records []model.IntakeRecord,
	stats *model.PipelineStats,
) ([]model.EligibilityResult, error) {
	results := make([]model.EligibilityResult, 0, len(records))
	for i := range records {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("eligibility checks stopped after %d of %d rows: %w", i, len(records), err)
		}
		rec := records[i]
		if err := normalizeRecordDates(&rec); err != nil {
			stats.Dropped[model.DropReasonInvalidDate]++
			log.WarnContext(ctx, "dropping row", "row", i, "reason", model.DropReasonInvalidDate, "error", err)
			continue
		}

		raw, err := p.check(ctx, rec)
		if err != nil {
			stats.Dropped[model.DropReasonAPIError]++
			log.WarnContext(ctx, "eligibility check failed", "row", i, "reason", model.DropReasonAPIError, "error", err)
			continue
		}

		outcome, err := p.extractor.Extract(raw)
		if err != nil || !outcome.Complete() {
			stats.Dropped[model.DropReasonIncompleteOutcome]++
			log.WarnContext(ctx, "dropping row", "row", i, "reason", model.DropReasonIncompleteOutcome, "error", err)
			continue
		}

		results = append(results, model.EligibilityResult{
			Source:     rec.Source,
			PatientID:  rec.PatientID,
			EpisodeNo:  rec.EpisodeNo,
			VisitID:    rec.VisitID,
			Outcome:    outcome.Outcome,
			Note:       outcome.Note,
			Class:      outcome.Class,
			InsertedAt: rec.InsertedAt,
		})
	}
	return results, nil
}

// check calls the API with a per-row timeout. The call is detached from
// cancellation so an in-flight request finishes before shutdown is observed.
func (p *Pipeline) check(ctx context.Context, rec model.IntakeRecord) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.apiTimeout)
	defer cancel()
	return p.checker.Check(callCtx, rec)
}

func (p *Pipeline) writeSnapshot(
	ctx context.Context,
	job model.JobDescriptor,
	prefix string,
	header []string,
	rows [][]string,
	at time.Time,
) (string, error) {
	path, err := p.snapshots.Write(ctx, core.SnapshotRequest{
		Dir:    job.SnapshotDir,
		Prefix: prefix,
		Header: header,
		Rows:   rows,
		At:     at,
	})
	if err != nil {
		return "", fmt.Errorf("write %s snapshot for %s: %w", prefix, job.Name, err)
	}
	return path, nil
}

func intakeRows(records []model.IntakeRecord) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = r.CSVRecord()
	}
	return out
}

func resultRows(results []model.EligibilityResult) [][]string {
	out := make([][]string, len(results))
	for i, r := range results {
		out[i] = r.CSVRecord()
	}
	return out
}

func dropCounts(dropped map[model.DropReason]int) map[string]int {
	out := make(map[string]int, len(dropped))
	for reason, n := range dropped {
		out[string(reason)] = n
	}
	return out
}

func droppedBody(job model.JobDescriptor, stats model.PipelineStats) string {
	reasons := make([]string, 0, len(stats.Dropped))
	for reason := range stats.Dropped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	var b strings.Builder
	fmt.Fprintf(&b, "The %s job dropped %d of %d unique rows in the window starting %s.\n\n",
		job.Name, stats.TotalDropped(), stats.Unique, stats.WindowStart.Format("2006-01-02 15:04:05"))
	for _, reason := range reasons {
		fmt.Fprintf(&b, "%s: %d\n", reason, stats.Dropped[model.DropReason(reason)])
	}
	fmt.Fprintf(&b, "\nFetched: %d\nIntake rows written: %d\nResult rows written: %d", stats.Fetched, stats.Intake, stats.Results)
	return b.String()
}

// preparer is implemented by collaborators that finish their setup on first
// use, such as schema migration or token endpoint discovery.
type preparer interface {
	Prepare(ctx context.Context) error
}

// prepare readies the store and the checker before anything is written.
// A failure fails the run; the next run tries again.
func (p *Pipeline) prepare(ctx context.Context) error {
	for _, c := range []any{p.store, p.checker} {
		if pr, ok := c.(preparer); ok {
			if err := pr.Prepare(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// logRejectedColumn names the column the reporting database refused, when known.
func logRejectedColumn(ctx context.Context, log *slog.Logger, err error) {
	if !apperrors.IsValidation(err) {
		return
	}
	if field := apperrors.GetField(err); field != "" {
		log.ErrorContext(ctx, "reporting database rejected column", "column", field)
	}
}
