package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/target/eligibility-sync/internal/domain/model"
)

// ErrMissingKey marks a row whose identifying columns are empty.
var ErrMissingKey = errors.New("row is missing its key columns")

// RowNormalizer maps a fetched row to the canonical intake record.
type RowNormalizer interface {
	Normalize(job model.JobDescriptor, row model.RawRow) (model.IntakeRecord, error)
}

// NormalizerFor returns the normalizer for a source.
func NormalizerFor(source model.SourceID) (RowNormalizer, error) {
	switch source {
	case model.SourcePrimary:
		return PrimaryNormalizer{}, nil
	case model.SourceSecondary:
		return SecondaryNormalizer{}, nil
	default:
		return nil, fmt.Errorf("no normalizer for source %q", source)
	}
}

// PrimaryNormalizer maps rows keyed by patient_id and episode_no.
type PrimaryNormalizer struct{}

// Normalize implements RowNormalizer.
func (PrimaryNormalizer) Normalize(job model.JobDescriptor, row model.RawRow) (model.IntakeRecord, error) {
	rec := commonFields(job, row)
	rec.Source = model.SourcePrimary
	rec.PatientID = field(job, row, model.FieldPatientID)
	rec.EpisodeNo = field(job, row, model.FieldEpisodeNo)
	if rec.PatientID == "" || rec.EpisodeNo == "" {
		return model.IntakeRecord{}, fmt.Errorf("%w: %s and %s are required", ErrMissingKey, model.FieldPatientID, model.FieldEpisodeNo)
	}
	return rec, nil
}

// SecondaryNormalizer maps rows keyed by visit_id. patient_id is carried
// along when the source provides it.
type SecondaryNormalizer struct{}

// Normalize implements RowNormalizer.
func (SecondaryNormalizer) Normalize(job model.JobDescriptor, row model.RawRow) (model.IntakeRecord, error) {
	rec := commonFields(job, row)
	rec.Source = model.SourceSecondary
	rec.VisitID = field(job, row, model.FieldVisitID)
	rec.PatientID = field(job, row, model.FieldPatientID)
	if rec.VisitID == "" {
		return model.IntakeRecord{}, fmt.Errorf("%w: %s is required", ErrMissingKey, model.FieldVisitID)
	}
	return rec, nil
}

func commonFields(job model.JobDescriptor, row model.RawRow) model.IntakeRecord {
	return model.IntakeRecord{
		NationalID:   field(job, row, model.FieldNationalID),
		PatientName:  field(job, row, model.FieldPatientName),
		Gender:       field(job, row, model.FieldGender),
		Nationality:  field(job, row, model.FieldNationality),
		DateOfBirth:  field(job, row, model.FieldDateOfBirth),
		StartDate:    field(job, row, model.FieldStartDate),
		EndDate:      field(job, row, model.FieldEndDate),
		PayerCode:    field(job, row, model.FieldPayerCode),
		PolicyNumber: field(job, row, model.FieldPolicyNumber),
		MemberID:     field(job, row, model.FieldMemberID),
	}
}

func field(job model.JobDescriptor, row model.RawRow, name string) string {
	return strings.TrimSpace(row.String(job.Column(name)))
}

// DeduplicateRows keeps the last row seen for every key. Survivors stay in
// their original relative order.
func DeduplicateRows(rows []model.RawRow, keyColumns []string) []model.RawRow {
	last := make(map[string]int, len(rows))
	for i, row := range rows {
		last[row.Key(keyColumns)] = i
	}
	out := make([]model.RawRow, 0, len(last))
	for i, row := range rows {
		if last[row.Key(keyColumns)] == i {
			out = append(out, row)
		}
	}
	return out
}

// dateLayouts are the input formats accepted for record dates.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02-Jan-2006",
	"02-Jan-06",
	"20060102",
}

// NormalizeDate converts a date in any accepted layout to YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", s)
}

// normalizeRecordDates rewrites the start, end and birth dates of rec.
func normalizeRecordDates(rec *model.IntakeRecord) error {
	for _, d := range []struct {
		name string
		val  *string
	}{
		{model.FieldStartDate, &rec.StartDate},
		{model.FieldEndDate, &rec.EndDate},
		{model.FieldDateOfBirth, &rec.DateOfBirth},
	} {
		norm, err := NormalizeDate(*d.val)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.val = norm
	}
	return nil
}
