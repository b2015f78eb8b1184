package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRowKey(t *testing.T) {
	row := RawRow{
		Columns: []string{"PATIENT_ID", "episode_no", "note"},
		Values:  []any{int64(42), []byte("E-1"), nil},
	}

	t.Run("key columns are case insensitive", func(t *testing.T) {
		assert.Equal(t, "42\x1fE-1\x1f", row.Key([]string{"patient_id", "EPISODE_NO"}))
	})

	t.Run("empty key uses every column", func(t *testing.T) {
		assert.Equal(t, "42\x1fE-1\x1f\x1f", row.Key(nil))
	})

	t.Run("missing column renders empty", func(t *testing.T) {
		assert.Equal(t, "", row.String("visit_id"))
	})
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "bytes", in: []byte("abc"), want: "abc"},
		{name: "date only", in: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), want: "2024-03-01"},
		{name: "date time", in: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), want: "2024-03-01 08:30:00"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "int", in: int64(7), want: "7"},
		{name: "bool", in: true, want: "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestResultCSVRecordMatchesColumns(t *testing.T) {
	at := time.Date(2024, 5, 2, 9, 15, 0, 0, time.UTC)
	for _, source := range []SourceID{SourcePrimary, SourceSecondary} {
		r := EligibilityResult{Source: source, PatientID: "p", EpisodeNo: "e", VisitID: "v", Outcome: "complete", Note: "ok", Class: "A", InsertedAt: at}
		rec := r.CSVRecord()
		require.Len(t, rec, len(ResultColumns(source)))
		assert.Equal(t, "2024-05-02 09:15", rec[len(rec)-1])
	}
}

func TestParseSourceID(t *testing.T) {
	id, err := ParseSourceID(" Primary ")
	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, id)

	_, err = ParseSourceID("tertiary")
	require.Error(t, err)
}

func TestJobDescriptorValidate(t *testing.T) {
	err := JobDescriptor{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job name is required")
	assert.Contains(t, err.Error(), "job source is invalid")

	ok := JobDescriptor{Name: "osis", Query: Query{SQL: "select 1"}, Source: SourcePrimary, DataSource: "osis"}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "patient_id", ok.Column(FieldPatientID))
}

func TestOutcomeComplete(t *testing.T) {
	assert.True(t, Outcome{Class: "A", Outcome: "complete", Note: "n"}.Complete())
	assert.False(t, Outcome{Class: "A", Outcome: " ", Note: "n"}.Complete())
}
