// Package eligibility is the HTTP client for the insurance eligibility API.
package eligibility

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// ClientConfig configures Client.
type ClientConfig struct {
	URL     string
	Timeout time.Duration

	// TokenURL, ClientID and ClientSecret enable the OAuth2 client
	// credentials flow. Token is used as a static bearer otherwise.
	// IssuerURL stands in for TokenURL: the endpoint is discovered on first use.
	TokenURL     string
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Token        string

	ProviderID string

	// HTTPClient is the base transport. Defaults to a client with Timeout.
	HTTPClient *http.Client
	// NewRequestID generates the per-request correlation id.
	NewRequestID func() string
	Logger       *slog.Logger
}

// Client posts one intake record per request and returns the raw response.
type Client struct {
	url        string
	providerID string
	newID      func() string
	logger     *slog.Logger

	mu   sync.Mutex
	http *http.Client
	// discover builds the authenticated client once the token endpoint is
	// known. It is nil when no discovery is needed.
	discover func(ctx context.Context) (*http.Client, error)
}

var _ core.EligibilityChecker = (*Client)(nil)

// Request is the JSON payload sent for one record.
type Request struct {
	RequestID    string `json:"request_id"`
	ProviderID   string `json:"provider_id,omitempty"`
	PatientID    string `json:"patient_id,omitempty"`
	EpisodeNo    string `json:"episode_no,omitempty"`
	VisitID      string `json:"visit_id,omitempty"`
	NationalID   string `json:"national_id"`
	PatientName  string `json:"patient_name,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
	DateOfBirth  string `json:"date_of_birth"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	PayerCode    string `json:"payer_code,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	MemberID     string `json:"member_id,omitempty"`
}

// NewClient builds a Client. The returned client authenticates every request
// with either client-credentials tokens or the static bearer token.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("eligibility API URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}

	newID := cfg.NewRequestID
	if newID == nil {
		newID = uuid.NewString
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		url:        cfg.URL,
		providerID: cfg.ProviderID,
		newID:      newID,
		logger:     logger.With("component", "eligibility_client"),
	}

	switch {
	case cfg.TokenURL != "" && cfg.ClientID != "":
		c.http = clientCredentials(base, cfg, cfg.TokenURL, timeout)
	case cfg.IssuerURL != "" && cfg.ClientID != "":
		c.discover = func(ctx context.Context) (*http.Client, error) {
			tokenURL, err := DiscoverTokenURL(ctx, cfg.IssuerURL, base)
			if err != nil {
				return nil, err
			}
			c.logger.InfoContext(ctx, "discovered eligibility token endpoint", "issuer", cfg.IssuerURL, "token_url", tokenURL)
			return clientCredentials(base, cfg, tokenURL, timeout), nil
		}
	case cfg.Token != "":
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		c.http.Timeout = timeout
	default:
		c.http = base
	}
	return c, nil
}

func clientCredentials(base *http.Client, cfg ClientConfig, tokenURL string, timeout time.Duration) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       cfg.Scopes,
	}
	// oauth2 picks the base client up from the context.
	hc := cc.Client(context.WithValue(context.Background(), oauth2.HTTPClient, base))
	hc.Timeout = timeout
	return hc
}

// Prepare resolves the token endpoint when it has to be discovered. A failed
// discovery is retried on the next call.
func (c *Client) Prepare(ctx context.Context) error {
	_, err := c.client(ctx)
	return err
}

func (c *Client) client(ctx context.Context) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		return c.http, nil
	}
	hc, err := c.discover(ctx)
	if err != nil {
		return nil, err
	}
	c.http = hc
	c.discover = nil
	return hc, nil
}

// BuildRequest maps an intake record to the API payload.
func (c *Client) BuildRequest(rec model.IntakeRecord) Request {
	return Request{
		RequestID:    c.newID(),
		ProviderID:   c.providerID,
		PatientID:    rec.PatientID,
		EpisodeNo:    rec.EpisodeNo,
		VisitID:      rec.VisitID,
		NationalID:   rec.NationalID,
		PatientName:  rec.PatientName,
		Gender:       rec.Gender,
		Nationality:  rec.Nationality,
		DateOfBirth:  rec.DateOfBirth,
		StartDate:    rec.StartDate,
		EndDate:      rec.EndDate,
		PayerCode:    rec.PayerCode,
		PolicyNumber: rec.PolicyNumber,
		MemberID:     rec.MemberID,
	}
}

// Check implements core.EligibilityChecker.
func (c *Client) Check(ctx context.Context, rec model.IntakeRecord) ([]byte, error) {
	payload := c.BuildRequest(rec)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal eligibility request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build eligibility request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", payload.RequestID)

	hc, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eligibility request %s: %w", payload.RequestID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read eligibility response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, RequestID: payload.RequestID, Body: excerpt(raw, 256)}
	}
	c.logger.DebugContext(ctx, "eligibility check completed", "request_id", payload.RequestID, "status", resp.StatusCode)
	return raw, nil
}

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	StatusCode int
	RequestID  string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("eligibility api status %d (request %s): %s", e.StatusCode, e.RequestID, e.Body)
}

func excerpt(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
