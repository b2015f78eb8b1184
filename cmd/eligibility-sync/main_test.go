package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/eligibility-sync/internal/domain/model"
	"github.com/target/eligibility-sync/internal/mocks"
)

func TestSummarizeRuns(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	ok := []model.RunResult{
		{Job: "OSIS", Status: model.RunStatusSucceeded},
		{Job: "Dotcare", Status: model.RunStatusSkipped},
	}
	require.NoError(t, summarizeRuns(context.Background(), logger, ok))

	failed := append(ok, model.RunResult{Job: "Lab", Status: model.RunStatusFailed, Err: errors.New("boom")})
	err := summarizeRuns(context.Background(), logger, failed)
	require.Error(t, err)
	assert.Equal(t, "1 of 3 jobs failed", err.Error())
}

func TestStartupFailureLogsCriticalAndAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertRecorder(ctrl)
	alerts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req model.NewAlertRequest) bool {
		assert.Contains(t, req.Subject, "Startup failure")
		assert.Contains(t, req.Body, "sources file defines no enabled sources")
		assert.Equal(t, model.AlertSeverityCritical, req.Severity)
		return true
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cause := errors.New("sources file defines no enabled sources")

	err := startupFailure(context.Background(), logger, alerts, cause)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, buf.String(), `"severity":"critical"`)
}

func TestNewCommandFlags(t *testing.T) {
	cmd := newCommand()
	names := make([]string, 0, len(cmd.Flags))
	for _, f := range cmd.Flags {
		names = append(names, f.Names()[0])
	}
	assert.ElementsMatch(t, []string{"test-alerts", "once", "ignore-blackout"}, names)
}
