package testutil

import (
	"time"

	"github.com/target/eligibility-sync/internal/domain/model"
)

// RowBuilder provides a fluent interface for building fetched rows.
type RowBuilder struct {
	row model.RawRow
}

// NewRow starts an empty row. Pairs are column name followed by value.
func NewRow(pairs ...any) *RowBuilder {
	b := &RowBuilder{}
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		b.With(name, pairs[i+1])
	}
	return b
}

// With appends a column, or replaces its value when already present.
func (b *RowBuilder) With(column string, value any) *RowBuilder {
	for i, c := range b.row.Columns {
		if c == column {
			b.row.Values[i] = value
			return b
		}
	}
	b.row.Columns = append(b.row.Columns, column)
	b.row.Values = append(b.row.Values, value)
	return b
}

// Without drops a column.
func (b *RowBuilder) Without(column string) *RowBuilder {
	for i, c := range b.row.Columns {
		if c == column {
			b.row.Columns = append(b.row.Columns[:i:i], b.row.Columns[i+1:]...)
			b.row.Values = append(b.row.Values[:i:i], b.row.Values[i+1:]...)
			break
		}
	}
	return b
}

// Build returns a copy of the row.
func (b *RowBuilder) Build() model.RawRow {
	return model.RawRow{
		Columns: append([]string(nil), b.row.Columns...),
		Values:  append([]any(nil), b.row.Values...),
	}
}

// PrimaryRow is a valid row as the primary intake source returns it.
func PrimaryRow(patient, episode, start string) *RowBuilder {
	return NewRow(
		"patient_id", patient,
		"episode_no", episode,
		"iqama_no", "2"+patient,
		"date_of_birth", "1990-05-17",
		"start_date", start,
		"end_date", "2026-03-05",
	)
}

// IntakeBuilder provides a fluent interface for building normalized intake records.
type IntakeBuilder struct {
	rec model.IntakeRecord
}

// NewIntake starts a record with sensible defaults for the given source.
func NewIntake(source model.SourceID) *IntakeBuilder {
	return &IntakeBuilder{rec: model.IntakeRecord{
		Source:      source,
		PatientID:   "P1",
		EpisodeNo:   "1",
		NationalID:  "1000000001",
		DateOfBirth: "1990-05-17",
		StartDate:   "2026-03-01",
		EndDate:     "2026-03-05",
		InsertedAt:  TestTime(),
	}}
}

// WithPatient sets the patient and episode identifiers.
func (b *IntakeBuilder) WithPatient(patient, episode string) *IntakeBuilder {
	b.rec.PatientID = patient
	b.rec.EpisodeNo = episode
	return b
}

// WithVisit sets the visit identifier used by the secondary source.
func (b *IntakeBuilder) WithVisit(visit string) *IntakeBuilder {
	b.rec.VisitID = visit
	return b
}

// WithNationalID sets the national id sent to the eligibility API.
func (b *IntakeBuilder) WithNationalID(id string) *IntakeBuilder {
	b.rec.NationalID = id
	return b
}

// WithInsertedAt sets the insertion timestamp.
func (b *IntakeBuilder) WithInsertedAt(at time.Time) *IntakeBuilder {
	b.rec.InsertedAt = at
	return b
}

// Build returns the record.
func (b *IntakeBuilder) Build() model.IntakeRecord {
	return b.rec
}
