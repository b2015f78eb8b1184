package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/eligibility-sync/internal/data/pgxutil"
	"github.com/target/eligibility-sync/internal/domain/model"
	apperrors "github.com/target/eligibility-sync/internal/errors"
)

const (
	upsertIntakePrimarySQL = `
		INSERT INTO intake_primary (
			patient_id, episode_no, national_id, patient_name, gender, nationality,
			date_of_birth, start_date, end_date, payer_code, policy_number, member_id, insertion_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (patient_id, episode_no) DO UPDATE SET
			national_id = EXCLUDED.national_id,
			patient_name = EXCLUDED.patient_name,
			gender = EXCLUDED.gender,
			nationality = EXCLUDED.nationality,
			date_of_birth = EXCLUDED.date_of_birth,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			payer_code = EXCLUDED.payer_code,
			policy_number = EXCLUDED.policy_number,
			member_id = EXCLUDED.member_id,
			insertion_date = EXCLUDED.insertion_date`

	upsertIntakeSecondarySQL = `
		INSERT INTO intake_secondary (
			visit_id, patient_id, national_id, patient_name, gender, nationality,
			date_of_birth, start_date, end_date, payer_code, policy_number, member_id, insertion_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (visit_id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			national_id = EXCLUDED.national_id,
			patient_name = EXCLUDED.patient_name,
			gender = EXCLUDED.gender,
			nationality = EXCLUDED.nationality,
			date_of_birth = EXCLUDED.date_of_birth,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			payer_code = EXCLUDED.payer_code,
			policy_number = EXCLUDED.policy_number,
			member_id = EXCLUDED.member_id,
			insertion_date = EXCLUDED.insertion_date`

	upsertResponsePrimarySQL = `
		INSERT INTO eligibility_responses (patient_id, episode_no, outcome, note, class, insertion_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (patient_id, episode_no) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			note = EXCLUDED.note,
			class = EXCLUDED.class,
			insertion_date = EXCLUDED.insertion_date`

	upsertResponseSecondarySQL = `
		INSERT INTO eligibility_dotcare (visit_id, outcome, note, class, insertion_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (visit_id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			note = EXCLUDED.note,
			class = EXCLUDED.class,
			insertion_date = EXCLUDED.insertion_date`
)

// ResultRepoOptions configures a ResultRepo.
type ResultRepoOptions struct {
	// WriteTimeout bounds one batch write. Zero disables the bound.
	WriteTimeout time.Duration
	// Migrate prepares the schema before the first write. Nil skips it.
	Migrate func(ctx context.Context) error
	Logger  *slog.Logger
}

// ResultRepo writes intake rows and eligibility results to the reporting
// database with idempotent upserts. It implements core.ResultStore.
type ResultRepo struct {
	db           *sql.DB
	writeTimeout time.Duration
	logger       *slog.Logger

	migrate  func(ctx context.Context) error
	mu       sync.Mutex
	prepared bool
}

// NewResultRepo creates a ResultRepo on a pool opened with the pgx driver.
func NewResultRepo(db *sql.DB, opts ResultRepoOptions) *ResultRepo {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultRepo{
		db:           db,
		writeTimeout: opts.WriteTimeout,
		migrate:      opts.Migrate,
		logger:       logger.With("component", "result_repo"),
	}
}

// Prepare runs the schema migration once. Until it succeeds every call
// retries it, so a database that was down at startup is picked up by a later
// job run.
func (r *ResultRepo) Prepare(ctx context.Context) error {
	if r.migrate == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prepared {
		return nil
	}
	if err := r.migrate(ctx); err != nil {
		return apperrors.Unavailable(err, "prepare reporting schema")
	}
	r.prepared = true
	return nil
}

// IntakeTable returns the intake table for a source.
func IntakeTable(source model.SourceID) string {
	if source == model.SourceSecondary {
		return "intake_secondary"
	}
	return "intake_primary"
}

// ResultTable returns the eligibility response table for a source.
func ResultTable(source model.SourceID) string {
	if source == model.SourceSecondary {
		return "eligibility_dotcare"
	}
	return "eligibility_responses"
}

// SaveIntake upserts intake records into the source's intake table.
func (r *ResultRepo) SaveIntake(ctx context.Context, source model.SourceID, records []model.IntakeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		if source == model.SourceSecondary {
			batch.Queue(upsertIntakeSecondarySQL,
				rec.VisitID, rec.PatientID, rec.NationalID, rec.PatientName, rec.Gender, rec.Nationality,
				rec.DateOfBirth, rec.StartDate, rec.EndDate, rec.PayerCode, rec.PolicyNumber, rec.MemberID,
				rec.InsertedAt)
			continue
		}
		batch.Queue(upsertIntakePrimarySQL,
			rec.PatientID, rec.EpisodeNo, rec.NationalID, rec.PatientName, rec.Gender, rec.Nationality,
			rec.DateOfBirth, rec.StartDate, rec.EndDate, rec.PayerCode, rec.PolicyNumber, rec.MemberID,
			rec.InsertedAt)
	}
	return r.write(ctx, IntakeTable(source), batch)
}

// SaveResults upserts eligibility results into the source's response table.
func (r *ResultRepo) SaveResults(
	ctx context.Context,
	source model.SourceID,
	results []model.EligibilityResult,
) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for i := range results {
		res := &results[i]
		if source == model.SourceSecondary {
			batch.Queue(upsertResponseSecondarySQL,
				res.VisitID, res.Outcome, res.Note, res.Class, res.InsertedAt)
			continue
		}
		batch.Queue(upsertResponsePrimarySQL,
			res.PatientID, res.EpisodeNo, res.Outcome, res.Note, res.Class, res.InsertedAt)
	}
	return r.write(ctx, ResultTable(source), batch)
}

func (r *ResultRepo) write(ctx context.Context, table string, batch *pgx.Batch) (int, error) {
	if r.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.writeTimeout)
		defer cancel()
	}

	var affected int64
	err := pgxutil.WithPgxTx(ctx, r.db, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			n, err := pgxutil.ExecBatch(ctx, tx, batch)
			affected = n
			return err
		},
	})
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", table, apperrors.MapDBError(err))
	}
	r.logger.DebugContext(ctx, "batch written", "table", table, "rows", batch.Len(), "affected", affected)
	return batch.Len(), nil
}
