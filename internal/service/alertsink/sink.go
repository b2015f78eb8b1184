// Package alertsink records alerts durably on disk and forwards them to
// secondary transports. Recording never fails or panics into the caller.
package alertsink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
	"github.com/target/eligibility-sync/internal/observability/metrics"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

const (
	defaultMaxFiles       = 100
	defaultHistoryFile    = "alert_history.log"
	defaultForwardTimeout = 30 * time.Second
)

// Options configures a Sink.
type Options struct {
	Dir         string
	HistoryFile string
	MaxFiles    int

	// Forwarder receives every recorded alert. Nil, or a forwarder whose
	// Enabled method reports false, disables forwarding.
	Forwarder core.AlertForwarder
	// Limiter suppresses repeat forwarding of a subject within ForwardWindow.
	Limiter        core.AlertLimiter
	ForwardWindow  time.Duration
	ForwardTimeout time.Duration

	Now      func() time.Time
	Hostname func() (string, error)
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// Sink is the file-based alert channel.
type Sink struct {
	dir            string
	historyPath    string
	maxFiles       int
	forwarder      core.AlertForwarder
	limiter        core.AlertLimiter
	forwardWindow  time.Duration
	forwardTimeout time.Duration
	now            func() time.Time
	host           string
	metrics        statsd.Sink
	logger         *slog.Logger

	// mu serialises history appends and retention within this process.
	mu sync.Mutex
}

var _ core.AlertRecorder = (*Sink)(nil)

// New builds a Sink. The directory is created lazily on first Record.
func New(opts Options) *Sink {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dir := opts.Dir
	if dir == "" {
		dir = "alerts"
	}
	history := opts.HistoryFile
	if history == "" {
		history = defaultHistoryFile
	}
	if !filepath.IsAbs(history) {
		history = filepath.Join(dir, history)
	}
	maxFiles := opts.MaxFiles
	if maxFiles < 1 {
		maxFiles = defaultMaxFiles
	}
	forwardTimeout := opts.ForwardTimeout
	if forwardTimeout <= 0 {
		forwardTimeout = defaultForwardTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hostname := opts.Hostname
	if hostname == nil {
		hostname = os.Hostname
	}
	host, err := hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	forwarder := opts.Forwarder
	if toggle, ok := forwarder.(interface{ Enabled() bool }); ok && !toggle.Enabled() {
		forwarder = nil
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewMemoryLimiter(MemoryLimiterConfig{Now: now})
	}

	return &Sink{
		dir:            dir,
		historyPath:    history,
		maxFiles:       maxFiles,
		forwarder:      forwarder,
		limiter:        limiter,
		forwardWindow:  opts.ForwardWindow,
		forwardTimeout: forwardTimeout,
		now:            now,
		host:           host,
		metrics:        opts.Metrics,
		logger:         logger.With("component", "alert_sink"),
	}
}

// Host returns the host name stamped on alerts.
func (s *Sink) Host() string {
	return s.host
}

// Dir returns the alert directory.
func (s *Sink) Dir() string {
	return s.dir
}

// HistoryPath returns the path of the history log.
func (s *Sink) HistoryPath() string {
	return s.historyPath
}

// Record writes the alert file, appends the history line, enforces retention
// and forwards the alert. Each step is isolated: a failing or panicking step
// is logged and the remaining steps still run. It reports whether the alert
// file was written.
func (s *Sink) Record(ctx context.Context, req model.NewAlertRequest) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "alert sink panicked", "panic", fmt.Sprint(r))
			delivered = false
		}
	}()

	req.Normalize()
	alert := model.Alert{
		ID:        uuid.NewString(),
		Subject:   req.Subject,
		Body:      req.Body,
		Severity:  req.Severity,
		Job:       req.Job,
		Host:      s.host,
		Timestamp: s.now(),
	}
	log := s.logger.With("alert_id", alert.ID, "subject", alert.Subject, "severity", alert.Severity.String())

	var path string
	delivered = s.guard(ctx, log, "write_file", func() error {
		var err error
		path, err = s.writeFile(alert)
		return err
	})
	if delivered {
		log.InfoContext(ctx, "alert written", "path", path)
		s.guard(ctx, log, "append_history", func() error { return s.appendHistory(alert) })
		s.guard(ctx, log, "retention", func() error { return s.enforceRetention(ctx) })
	}

	forwarded := false
	s.guard(ctx, log, "forward", func() error {
		var err error
		forwarded, err = s.forward(ctx, alert)
		return err
	})

	metrics.EmitAlertRecorded(s.metrics, metrics.AlertMetric{
		Severity:  alert.Severity.String(),
		Delivered: delivered,
		Forwarded: forwarded,
	})
	return delivered
}

// guard runs step, converting a returned error or a panic into a log entry.
func (s *Sink) guard(ctx context.Context, log *slog.Logger, step string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "alert step panicked", "step", step, "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		log.ErrorContext(ctx, "alert step failed", "step", step, "error", err)
		return false
	}
	return true
}

func (s *Sink) writeFile(alert model.Alert) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create alert directory %s: %w", s.dir, err)
	}
	return createExclusive(s.dir, FileName(alert.Timestamp, alert.Subject), renderAlert(alert))
}

func (s *Sink) appendHistory(alert model.Alert) error {
	line := alert.Timestamp.Format(HistoryTimeLayout) + " - " + alert.Subject + "\n"
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.historyPath, line)
}

// enforceRetention deletes the oldest alert files until at most maxFiles remain.
// Individual deletion failures are logged at debug and skipped.
func (s *Sink) enforceRetention(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := listAlertFiles(s.dir)
	if err != nil {
		return fmt.Errorf("list alert files: %w", err)
	}
	excess := len(files) - s.maxFiles
	for i := 0; i < excess; i++ {
		if err := os.Remove(files[i].path); err != nil {
			s.logger.DebugContext(ctx, "alert cleanup failed", "path", files[i].path, "error", err)
			continue
		}
		s.logger.DebugContext(ctx, "removed old alert file", "path", files[i].path)
	}
	return nil
}

// forward sends the alert to the secondary transports unless the subject was
// forwarded within the window. It runs detached from ctx cancellation so a
// shutdown alert still goes out.
func (s *Sink) forward(ctx context.Context, alert model.Alert) (bool, error) {
	if s.forwarder == nil {
		return false, nil
	}
	if !s.limiter.Allow(ctx, alert.Subject, s.forwardWindow) {
		s.logger.InfoContext(ctx, "alert forwarding suppressed", "subject", alert.Subject, "window", s.forwardWindow)
		return false, nil
	}
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.forwardTimeout)
	defer cancel()
	if err := s.forwarder.Forward(fctx, alert); err != nil {
		return false, fmt.Errorf("forward alert: %w", err)
	}
	return true, nil
}

// History returns the parsed history log in the order it was written.
func (s *Sink) History() ([]model.AlertHistoryEntry, error) {
	return ReadHistory(s.historyPath, time.Local)
}

// Files lists the retained alert files, oldest first.
func (s *Sink) Files() ([]string, error) {
	files, err := listAlertFiles(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}
