// Package notify defines the payload and sink contract shared by the
// secondary alert transports (Slack, PagerDuty, SMTP, SendGrid).
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// AlertPayload captures the canonical data forwarded for every recorded alert.
type AlertPayload struct {
	ID       string
	Subject  string
	Body     string
	Severity string
	Job      string
	Host     string
	// System names the deployment, e.g. "eligibility-sync".
	System     string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming alert notifications.
type Sink interface {
	SendAlert(ctx context.Context, payload AlertPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload AlertPayload) error

// SendAlert implements the Sink interface.
func (f SinkFunc) SendAlert(ctx context.Context, payload AlertPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// RetryDelay is the linear backoff step between transport attempts.
const RetryDelay = 200 * time.Millisecond

// Retry calls send up to retryLimit+1 times, waiting attempt*RetryDelay
// between calls. It returns the last error, or ctx.Err() if cancelled
// while waiting.
func Retry(ctx context.Context, retryLimit int, send func(context.Context) error) error {
	attempts := max(retryLimit, 0) + 1
	var lastErr error
	for attempt := range attempts {
		if lastErr = send(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// Excerpt shortens s to at most n runes, marking the cut.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
