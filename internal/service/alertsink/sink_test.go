package alertsink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/eligibility-sync/internal/domain/model"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

type forwarderFunc func(ctx context.Context, alert model.Alert) error

func (f forwarderFunc) Forward(ctx context.Context, alert model.Alert) error { return f(ctx, alert) }

type toggledForwarder struct {
	enabled bool
	calls   int
}

func (f *toggledForwarder) Forward(context.Context, model.Alert) error {
	f.calls++
	return nil
}

func (f *toggledForwarder) Enabled() bool { return f.enabled }

type countingLimiter struct{ calls int }

func (l *countingLimiter) Allow(context.Context, string, time.Duration) bool {
	l.calls++
	return true
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestSink(t *testing.T, opts Options) *Sink {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = filepath.Join(t.TempDir(), "alerts")
	}
	if opts.Now == nil {
		opts.Now = fixedClock(time.Date(2026, 3, 1, 14, 5, 9, 0, time.Local))
	}
	if opts.Hostname == nil {
		opts.Hostname = func() (string, error) { return "etl-01", nil }
	}
	return New(opts)
}

func TestSanitizeSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{name: "spaces", subject: "Test Alert", want: "Test_Alert"},
		{name: "path separators", subject: `a/b\c`, want: "a_b_c"},
		{name: "unsafe characters", subject: `x:y*z?"<>|`, want: "x_y_z_____"},
		{name: "truncated", subject: "Error in Scheduler_Thread on very-long-host-name", want: "Error_in_Scheduler_Thread_on_v"},
		{name: "empty", subject: "", want: "alert"},
		{name: "dots only", subject: "..", want: "alert"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSubject(tt.subject)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), 30)
			assert.NotContains(t, got, "/")
			assert.NotContains(t, got, `\`)
		})
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "ALERT_20260301_140509_Test_Alert.txt", FileName(ts, "Test Alert"))
}

func TestRecordWritesFileAndHistory(t *testing.T) {
	var rec statsd.Recorder
	sink := newTestSink(t, Options{Metrics: &rec})

	ok := sink.Record(context.Background(), model.NewAlertRequest{
		Subject: "Error in OSIS on etl-01",
		Body:    "Error details:\nboom",
		Job:     "OSIS",
	})
	require.True(t, ok)

	files, err := sink.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ALERT_20260301_140509_Error_in_OSIS_on_etl-01.txt", filepath.Base(files[0]))

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.HasPrefix(text, "SUBJECT: Error in OSIS on etl-01\nTIME: 2026-03-01 14:05:09\nHOST: etl-01\nSYSTEM: "))
	assert.Contains(t, text, "\nGO: go")
	assert.Contains(t, text, "\nJOB: OSIS\n")
	assert.Contains(t, text, "SEVERITY: critical")
	assert.True(t, strings.HasSuffix(text, "\n"+strings.Repeat("=", 50)+"\n\nError details:\nboom"))

	history, err := sink.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Error in OSIS on etl-01", history[0].Subject)

	samples := rec.Find("alert.recorded")
	require.Len(t, samples, 1)
	assert.Equal(t, "true", samples[0].Tags["delivered"])
	assert.Equal(t, "false", samples[0].Tags["forwarded"])
}

func TestRecordNeverOverwritesWithinSameSecond(t *testing.T) {
	sink := newTestSink(t, Options{})
	for range 3 {
		require.True(t, sink.Record(context.Background(), model.NewAlertRequest{Subject: "Test Alert"}))
	}

	files, err := sink.Files()
	require.NoError(t, err)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{
		"ALERT_20260301_140509_Test_Alert.txt",
		"ALERT_20260301_140509_Test_Alert_1.txt",
		"ALERT_20260301_140509_Test_Alert_2.txt",
	}, names)

	history, err := sink.History()
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestRecordRetentionKeepsNewest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "alerts")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	base := time.Now().Add(-time.Hour)
	var old []string
	for i := range 4 {
		path := filepath.Join(dir, FileName(base.Add(time.Duration(i)*time.Minute), "old"))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o640))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mt, mt))
		old = append(old, path)
	}
	// Unrelated files are never counted or removed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o640))

	sink := newTestSink(t, Options{Dir: dir, MaxFiles: 3, Now: time.Now})
	require.True(t, sink.Record(context.Background(), model.NewAlertRequest{Subject: "fresh"}))

	files, err := sink.Files()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, old[2], files[0])
	assert.Equal(t, old[3], files[1])
	assert.Contains(t, filepath.Base(files[2]), "_fresh.txt")
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestRecordDirectoryFailureDegrades(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o640))

	var forwarded []model.Alert
	sink := newTestSink(t, Options{
		Dir: filepath.Join(blocker, "alerts"),
		Forwarder: forwarderFunc(func(_ context.Context, a model.Alert) error {
			forwarded = append(forwarded, a)
			return nil
		}),
	})

	assert.NotPanics(t, func() {
		assert.False(t, sink.Record(context.Background(), model.NewAlertRequest{Subject: "x"}))
	})
	assert.Len(t, forwarded, 1, "forwarding still runs when the file step fails")
}

func TestRecordForwardingIsRateLimited(t *testing.T) {
	var subjects []string
	sink := newTestSink(t, Options{
		ForwardWindow: 15 * time.Minute,
		Forwarder: forwarderFunc(func(_ context.Context, a model.Alert) error {
			subjects = append(subjects, a.Subject)
			return nil
		}),
	})

	ctx := context.Background()
	sink.Record(ctx, model.NewAlertRequest{Subject: "Error in OSIS on etl-01"})
	sink.Record(ctx, model.NewAlertRequest{Subject: "Error in OSIS on etl-01"})
	sink.Record(ctx, model.NewAlertRequest{Subject: "Error in Dotcare on etl-01"})

	assert.Equal(t, []string{"Error in OSIS on etl-01", "Error in Dotcare on etl-01"}, subjects)
}

func TestRecordSkipsDisabledForwarder(t *testing.T) {
	tests := []struct {
		name          string
		enabled       bool
		wantCalls     int
		wantForwarded string
	}{
		{name: "no transports configured", enabled: false, wantCalls: 0, wantForwarded: "false"},
		{name: "transports configured", enabled: true, wantCalls: 1, wantForwarded: "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec statsd.Recorder
			fwd := &toggledForwarder{enabled: tt.enabled}
			limiter := &countingLimiter{}
			sink := newTestSink(t, Options{Forwarder: fwd, Limiter: limiter, Metrics: &rec})

			assert.True(t, sink.Record(context.Background(), model.NewAlertRequest{Subject: "Error in OSIS on etl-01"}))
			assert.Equal(t, tt.wantCalls, fwd.calls)
			assert.Equal(t, tt.wantCalls, limiter.calls, "the rate-limit key is only claimed when forwarding")

			samples := rec.Find("alert.recorded")
			require.Len(t, samples, 1)
			assert.Equal(t, tt.wantForwarded, samples[0].Tags["forwarded"])
		})
	}
}

func TestRecordForwardFailuresAreContained(t *testing.T) {
	tests := []struct {
		name string
		fwd  forwarderFunc
	}{
		{name: "error", fwd: func(context.Context, model.Alert) error { return errors.New("smtp down") }},
		{name: "panic", fwd: func(context.Context, model.Alert) error { panic("nil webhook") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newTestSink(t, Options{Forwarder: tt.fwd})
			assert.NotPanics(t, func() {
				assert.True(t, sink.Record(context.Background(), model.NewAlertRequest{Subject: "x"}))
			})
		})
	}
}

func TestRecordForwardsAfterCancellation(t *testing.T) {
	var got error
	sink := newTestSink(t, Options{
		Forwarder: forwarderFunc(func(ctx context.Context, _ model.Alert) error {
			got = ctx.Err()
			return nil
		}),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, sink.Record(ctx, model.NewAlertRequest{Subject: "Scheduler stopped"}))
	assert.NoError(t, got)
}

func TestReadHistorySkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert_history.log")
	content := "2026-03-01 10:00:00 - First\ngarbage\n2026-03-01 10:05:00 - Second - with dash\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))

	entries, err := ReadHistory(path, time.UTC)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Second - with dash", entries[1].Subject)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC), entries[1].Timestamp)
}
