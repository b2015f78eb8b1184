package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/eligibility-sync/internal/domain/model"
)

func TestRowBuilder(t *testing.T) {
	b := NewRow("patient_id", "1", "episode_no", "A")
	first := b.Build()

	b.With("episode_no", "B").With("start_date", "2026-03-01").Without("patient_id")
	second := b.Build()

	assert.Equal(t, []string{"patient_id", "episode_no"}, first.Columns)
	assert.Equal(t, "A", first.String("episode_no"))

	assert.Equal(t, []string{"episode_no", "start_date"}, second.Columns)
	assert.Equal(t, "B", second.String("episode_no"))
	_, ok := second.Get("patient_id")
	assert.False(t, ok)
}

func TestPrimaryRow(t *testing.T) {
	row := PrimaryRow("7", "E", "2026-03-02").Build()
	assert.Equal(t, "27", row.String("iqama_no"))
	assert.Equal(t, "2026-03-02", row.String("start_date"))
}

func TestIntakeBuilder(t *testing.T) {
	rec := NewIntake(model.SourceSecondary).WithVisit("V9").WithPatient("P9", "").Build()
	assert.Equal(t, model.SourceSecondary, rec.Source)
	assert.Equal(t, "V9", rec.VisitID)
	assert.Equal(t, "P9", rec.PatientID)
	assert.Equal(t, TestTime(), rec.InsertedAt)
}
