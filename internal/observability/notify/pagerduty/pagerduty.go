// Package pagerduty forwards alerts as PagerDuty Events API v2 triggers.
package pagerduty

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/target/eligibility-sync/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	// Endpoint overrides APIEndpoint.
	Endpoint   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	retryLimit int
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		routingKey: key,
		source:     fallbackString(strings.TrimSpace(cfg.Source), "eligibility-sync"),
		component:  fallbackString(strings.TrimSpace(cfg.Component), "scheduler"),
		endpoint:   fallbackString(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
	}, nil
}

// SendAlert submits a trigger event to PagerDuty.
func (c *Client) SendAlert(ctx context.Context, payload notify.AlertPayload) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return notify.Retry(ctx, c.retryLimit, func(ctx context.Context) error {
		return c.submit(ctx, body)
	})
}

func (c *Client) buildEvent(payload notify.AlertPayload) map[string]any {
	severity := strings.ToLower(strings.TrimSpace(payload.Severity))
	switch severity {
	case notify.SeverityCritical, notify.SeverityWarning, notify.SeverityInfo:
	default:
		severity = notify.SeverityCritical
	}

	occurredAt := payload.OccurredAt.UTC()
	if payload.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"alert_id": payload.ID,
		"job":      payload.Job,
		"host":     payload.Host,
		"system":   payload.System,
		"body":     notify.Excerpt(payload.Body, 4000),
	}
	for k, v := range payload.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    dedupKey(payload),
		"payload": map[string]any{
			"summary":        notify.Excerpt(fallbackString(payload.Subject, "eligibility-sync alert"), 1024),
			"severity":       severity,
			"source":         fallbackString(payload.Host, c.source),
			"component":      c.component,
			"group":          payload.Job,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}

// dedupKey groups repeats of the same alert subject for the same job into one incident.
func dedupKey(payload notify.AlertPayload) string {
	sum := sha256.Sum256([]byte(payload.Subject))
	return strings.Trim(fmt.Sprintf("%s:%s", payload.Job, hex.EncodeToString(sum[:8])), ":")
}

func fallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func (c *Client) submit(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create pagerduty request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pagerduty request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("read pagerduty error response: %w", readErr)
		}
		return fmt.Errorf("pagerduty api %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain pagerduty response body: %w", err)
	}
	return nil
}
