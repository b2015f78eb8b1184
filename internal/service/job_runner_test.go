package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/eligibility-sync/internal/domain/model"
	"github.com/target/eligibility-sync/internal/mocks"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

func newTestJobRunner(t *testing.T, alerts *mocks.MockAlertRecorder, sink statsd.Sink) *JobRunner {
	t.Helper()
	runner, err := NewJobRunner(JobRunnerOptions{
		Alerts:   alerts,
		Metrics:  sink,
		LogFile:  "scheduler.log",
		Hostname: func() (string, error) { return "etl-01", nil },
		Now:      func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local) },
	})
	require.NoError(t, err)
	return runner
}

func TestNewJobRunnerRequiresRecorder(t *testing.T) {
	_, err := NewJobRunner(JobRunnerOptions{})
	require.Error(t, err)
}

func TestRunSafely(t *testing.T) {
	tests := []struct {
		name         string
		work         func(context.Context) error
		wantStatus   model.RunStatus
		wantPanicked bool
		wantMessage  string
	}{
		{
			name:       "success",
			work:       func(context.Context) error { return nil },
			wantStatus: model.RunStatusSucceeded,
		},
		{
			name:        "returned error",
			work:        func(context.Context) error { return fmt.Errorf("fetch OSIS: %w", errors.New("connection reset")) },
			wantStatus:  model.RunStatusFailed,
			wantMessage: "fetch OSIS: connection reset",
		},
		{
			name:         "panic with value",
			work:         func(context.Context) error { panic("index out of range") },
			wantStatus:   model.RunStatusFailed,
			wantPanicked: true,
			wantMessage:  "panic: index out of range",
		},
		{
			name: "panic with error",
			work: func(context.Context) error {
				var m map[string]int
				m["x"] = 1
				return nil
			},
			wantStatus:   model.RunStatusFailed,
			wantPanicked: true,
			wantMessage:  "assignment to entry in nil map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			alerts := mocks.NewMockAlertRecorder(ctrl)
			var rec statsd.Recorder

			var got model.NewAlertRequest
			if tt.wantStatus == model.RunStatusFailed {
				alerts.EXPECT().Record(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req model.NewAlertRequest) bool {
						got = req
						return true
					}).Times(1)
			}

			runner := newTestJobRunner(t, alerts, &rec)
			var result model.RunResult
			require.NotPanics(t, func() {
				result = runner.RunSafely(context.Background(), "OSIS", tt.work)
			})

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantPanicked, result.Panicked)
			assert.Equal(t, "OSIS", result.Job)
			require.Len(t, rec.Find("job.run"), 1)

			if tt.wantStatus != model.RunStatusFailed {
				assert.NoError(t, result.Err)
				assert.False(t, result.AlertRecorded)
				return
			}
			require.Error(t, result.Err)
			assert.True(t, result.AlertRecorded)
			assert.Equal(t, "Error in OSIS on etl-01", got.Subject)
			assert.Equal(t, "OSIS", got.Job)
			assert.Equal(t, model.AlertSeverityCritical, got.Severity)
			assert.Contains(t, got.Body, "An error occurred in the OSIS job on etl-01 at 2026-03-01 09:00:00.")
			assert.Contains(t, got.Body, "Error details:\n")
			assert.Contains(t, got.Body, tt.wantMessage)
			assert.Contains(t, got.Body, "Stack trace:\ngoroutine ")
			assert.Contains(t, got.Body, "Please check the scheduler.log file for more information.")
		})
	}
}

func TestRunSafelyInterruptedIsNotAlerted(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertRecorder(ctrl)
	var rec statsd.Recorder
	runner := newTestJobRunner(t, alerts, &rec)

	ctx, cancel := context.WithCancel(context.Background())
	result := runner.RunSafely(ctx, "OSIS", func(ctx context.Context) error {
		cancel()
		return fmt.Errorf("fetch: %w", ctx.Err())
	})

	assert.Equal(t, model.RunStatusInterrupted, result.Status)
	assert.ErrorIs(t, result.Err, context.Canceled)
	runs := rec.Find("job.run")
	require.Len(t, runs, 1)
	assert.Equal(t, "interrupted", runs[0].Tags["result"])
}

func TestRunSafelyCanceledWithoutShutdownIsAlerted(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertRecorder(ctrl)
	alerts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(false)
	runner := newTestJobRunner(t, alerts, nil)

	result := runner.RunSafely(context.Background(), "OSIS", func(context.Context) error {
		return context.Canceled
	})
	assert.Equal(t, model.RunStatusFailed, result.Status)
	assert.False(t, result.AlertRecorded)
}

func TestRunSafelyContainsRecorderPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertRecorder(ctrl)
	alerts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, model.NewAlertRequest) bool {
		panic("disk on fire")
	})
	runner := newTestJobRunner(t, alerts, nil)

	assert.NotPanics(t, func() {
		result := runner.RunSafely(context.Background(), "OSIS", func(context.Context) error { return errors.New("x") })
		assert.False(t, result.AlertRecorded)
	})
}

func TestRunSafelyNilWork(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertRecorder(ctrl)
	alerts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(true)
	runner := newTestJobRunner(t, alerts, nil)

	result := runner.RunSafely(context.Background(), "OSIS", nil)
	assert.Equal(t, model.RunStatusFailed, result.Status)
}

func TestFailureReportBody(t *testing.T) {
	r := FailureReport{
		Job:     "TEST_ERROR",
		Host:    "etl-01",
		At:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Message: "simulated",
		Stack:   "goroutine 1 [running]:",
	}
	assert.Equal(t, "Error in TEST_ERROR on etl-01", r.Subject())
	assert.Equal(t,
		"An error occurred in the TEST_ERROR job on etl-01 at 2026-03-01 09:00:00.\n\n"+
			"Error details:\nsimulated\n\n"+
			"Stack trace:\ngoroutine 1 [running]:\n\n"+
			"Please check the scheduler.log file for more information.",
		r.Body("scheduler.log"))
}
