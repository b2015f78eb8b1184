package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		raw     string
		want    SourceID
		wantErr bool
	}{
		{raw: "primary", want: SourcePrimary},
		{raw: "  Secondary ", want: SourceSecondary},
		{raw: "tertiary", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSourceID(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryArgs(t *testing.T) {
	since := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.Nil(t, Query{SQL: "SELECT 1"}.Args(since))
	assert.Equal(t, []any{since}, Query{SQL: "SELECT 1 WHERE t > $1", SinceParam: true}.Args(since))
}

func TestJobDescriptorValidate(t *testing.T) {
	valid := JobDescriptor{Name: "OSIS", Query: Query{SQL: "SELECT 1"}, Source: SourcePrimary, DataSource: "osis"}
	require.NoError(t, valid.Validate())

	err := JobDescriptor{Source: "bogus"}.Validate()
	require.Error(t, err)
	for _, want := range []string{"name", "query", "source", "data source"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestJobDescriptorColumn(t *testing.T) {
	j := JobDescriptor{Columns: map[string]string{FieldNationalID: "iqama_no", FieldVisitID: ""}}
	assert.Equal(t, "iqama_no", j.Column(FieldNationalID))
	assert.Equal(t, FieldVisitID, j.Column(FieldVisitID))
	assert.Equal(t, FieldPatientID, j.Column(FieldPatientID))
}

func TestRunResultFailed(t *testing.T) {
	assert.True(t, RunResult{Status: RunStatusFailed}.Failed())
	assert.False(t, RunResult{Status: RunStatusInterrupted}.Failed())
}

func TestNewAlertRequestNormalize(t *testing.T) {
	req := NewAlertRequest{Subject: "  ", Job: " OSIS ", Severity: "loud"}
	req.Normalize()
	assert.Equal(t, "Untitled alert", req.Subject)
	assert.Equal(t, "OSIS", req.Job)
	assert.Equal(t, AlertSeverityCritical, req.Severity)
}
