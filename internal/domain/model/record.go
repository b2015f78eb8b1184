//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical field names shared by sources, snapshots and destination tables.
const (
	FieldPatientID    = "patient_id"
	FieldEpisodeNo    = "episode_no"
	FieldVisitID      = "visit_id"
	FieldNationalID   = "national_id"
	FieldPatientName  = "patient_name"
	FieldGender       = "gender"
	FieldNationality  = "nationality"
	FieldDateOfBirth  = "date_of_birth"
	FieldStartDate    = "start_date"
	FieldEndDate      = "end_date"
	FieldPayerCode    = "payer_code"
	FieldPolicyNumber = "policy_number"
	FieldMemberID     = "member_id"
)

// RawRow is one row as returned by a fetcher, with the column order preserved.
type RawRow struct {
	Columns []string
	Values  []any
}

// Get returns the value for a column (case-insensitive).
func (r RawRow) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, column) && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// String returns the column value rendered as text. Missing and NULL values are empty.
func (r RawRow) String(column string) string {
	v, ok := r.Get(column)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Key builds the deduplication key from the given columns, or from every column when none are given.
func (r RawRow) Key(columns []string) string {
	var b strings.Builder
	if len(columns) == 0 {
		for i := range r.Values {
			b.WriteString(FormatValue(r.Values[i]))
			b.WriteByte(0x1f)
		}
		return b.String()
	}
	for _, c := range columns {
		b.WriteString(r.String(c))
		b.WriteByte(0x1f)
	}
	return b.String()
}

// FormatValue renders a driver value the way it is written to snapshots.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.DateTime)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// IntakeRecord is the canonical shape of a fetched row after source normalization.
type IntakeRecord struct {
	Source       SourceID
	PatientID    string
	EpisodeNo    string
	VisitID      string
	NationalID   string
	PatientName  string
	Gender       string
	Nationality  string
	DateOfBirth  string
	StartDate    string
	EndDate      string
	PayerCode    string
	PolicyNumber string
	MemberID     string
	InsertedAt   time.Time
}

// IntakeColumns is the column order of intake snapshots.
func IntakeColumns() []string {
	return []string{
		FieldPatientID, FieldEpisodeNo, FieldVisitID, FieldNationalID, FieldPatientName,
		FieldGender, FieldNationality, FieldDateOfBirth, FieldStartDate, FieldEndDate,
		FieldPayerCode, FieldPolicyNumber, FieldMemberID, "insertion_date",
	}
}

// CSVRecord renders the record in IntakeColumns order.
func (r IntakeRecord) CSVRecord() []string {
	return []string{
		r.PatientID, r.EpisodeNo, r.VisitID, r.NationalID, r.PatientName,
		r.Gender, r.Nationality, r.DateOfBirth, r.StartDate, r.EndDate,
		r.PayerCode, r.PolicyNumber, r.MemberID, FormatInsertionDate(r.InsertedAt),
	}
}

// EligibilityResult is an intake record enriched with the eligibility decision.
type EligibilityResult struct {
	Source     SourceID
	PatientID  string
	EpisodeNo  string
	VisitID    string
	Outcome    string
	Note       string
	Class      string
	InsertedAt time.Time
}

// ResultColumns is the column order of result snapshots for a source.
func ResultColumns(source SourceID) []string {
	if source == SourceSecondary {
		return []string{FieldVisitID, "outcome", "note", "class", "insertion_date"}
	}
	return []string{FieldPatientID, FieldEpisodeNo, "outcome", "note", "class", "insertion_date"}
}

// CSVRecord renders the result in ResultColumns order.
func (r EligibilityResult) CSVRecord() []string {
	inserted := FormatInsertionDate(r.InsertedAt)
	if r.Source == SourceSecondary {
		return []string{r.VisitID, r.Outcome, r.Note, r.Class, inserted}
	}
	return []string{r.PatientID, r.EpisodeNo, r.Outcome, r.Note, r.Class, inserted}
}

// FormatInsertionDate renders the insertion timestamp with minute precision.
func FormatInsertionDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// Outcome is the eligibility decision extracted from an API response.
type Outcome struct {
	Class   string
	Outcome string
	Note    string
}

// Complete reports whether every field of the outcome is present.
func (o Outcome) Complete() bool {
	return strings.TrimSpace(o.Class) != "" &&
		strings.TrimSpace(o.Outcome) != "" &&
		strings.TrimSpace(o.Note) != ""
}

// DropReason explains why a row did not reach the results table.
type DropReason string

const (
	DropReasonInvalidDate       DropReason = "invalid_date"
	DropReasonAPIError          DropReason = "api_error"
	DropReasonIncompleteOutcome DropReason = "incomplete_outcome"
	DropReasonMissingKey        DropReason = "missing_key"
)

// PipelineStats summarizes one pipeline execution.
type PipelineStats struct {
	Fetched     int
	Unique      int
	Intake      int
	Results     int
	Dropped     map[DropReason]int
	IntakeFile  string
	ResultsFile string
	WindowStart time.Time
	Duration    time.Duration
}

// TotalDropped returns the number of rows dropped for any reason.
func (s PipelineStats) TotalDropped() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}
