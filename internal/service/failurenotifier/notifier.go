// Package failurenotifier fans recorded alerts out to the secondary transports.
package failurenotifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
	"github.com/target/eligibility-sync/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// System identifies this deployment in forwarded payloads.
	System string
}

// Service dispatches alerts to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
	system string
}

var _ core.AlertForwarder = (*Service)(nil)

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
		system: opts.System,
	}
}

// Forward sends the alert to every sink concurrently and waits for all of them.
// The returned error joins every sink failure; each one is also logged.
func (s *Service) Forward(ctx context.Context, alert model.Alert) error {
	if len(s.sinks) == 0 {
		return nil
	}
	payload := s.payload(alert)

	errs := make([]error, len(s.sinks))
	var wg sync.WaitGroup
	for i, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendAlert(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "alert forwarding failed",
					"sink", entry.Name,
					"alert_id", payload.ID,
					"job", payload.Job,
					"error", err,
				)
				errs[i] = fmt.Errorf("%s: %w", entry.Name, err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}

// SinkNames lists the registered sinks in registration order.
func (s *Service) SinkNames() []string {
	names := make([]string, 0, len(s.sinks))
	for _, entry := range s.sinks {
		names = append(names, entry.Name)
	}
	return names
}

func (s *Service) payload(alert model.Alert) notify.AlertPayload {
	severity := alert.Severity.String()
	if severity == "" {
		severity = notify.SeverityCritical
	}
	return notify.AlertPayload{
		ID:         alert.ID,
		Subject:    alert.Subject,
		Body:       alert.Body,
		Severity:   severity,
		Job:        alert.Job,
		Host:       alert.Host,
		System:     s.system,
		OccurredAt: alert.Timestamp,
	}
}
