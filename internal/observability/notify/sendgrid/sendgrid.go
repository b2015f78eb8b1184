// Package sendgrid forwards alerts through the SendGrid v3 mail send API.
package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/target/eligibility-sync/internal/observability/notify"
)

// Mailer is the part of the SendGrid client used here.
type Mailer interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Config captures SendGrid delivery settings.
type Config struct {
	APIKey     string
	From       string
	FromName   string
	To         []string
	RetryLimit int
	// Mailer overrides the SendGrid API client.
	Mailer Mailer
}

// Client sends one message per alert, addressed to every recipient.
type Client struct {
	mailer     Mailer
	from       *mail.Email
	to         []*mail.Email
	retryLimit int
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg and builds a SendGrid client.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	from := strings.TrimSpace(cfg.From)
	var to []*mail.Email
	for _, addr := range cfg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, mail.NewEmail("", addr))
		}
	}

	var errs []error
	if key == "" && cfg.Mailer == nil {
		errs = append(errs, errors.New("sendgrid api key is required"))
	}
	if from == "" {
		errs = append(errs, errors.New("sendgrid from address is required"))
	}
	if len(to) == 0 {
		errs = append(errs, errors.New("at least one sendgrid recipient is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	mailer := cfg.Mailer
	if mailer == nil {
		mailer = sg.NewSendClient(key)
	}
	name := strings.TrimSpace(cfg.FromName)
	if name == "" {
		name = "eligibility-sync"
	}
	return &Client{
		mailer:     mailer,
		from:       mail.NewEmail(name, from),
		to:         to,
		retryLimit: max(cfg.RetryLimit, 0),
	}, nil
}

// SendAlert submits the alert as a plain-text message.
func (c *Client) SendAlert(ctx context.Context, payload notify.AlertPayload) error {
	msg := c.buildMessage(payload)
	return notify.Retry(ctx, c.retryLimit, func(context.Context) error {
		resp, err := c.mailer.Send(msg)
		if err != nil {
			return fmt.Errorf("sendgrid send: %w", err)
		}
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
			return fmt.Errorf("sendgrid api status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
		}
		return nil
	})
}

func (c *Client) buildMessage(payload notify.AlertPayload) *mail.SGMailV3 {
	subject := payload.Subject
	if sev := strings.ToUpper(strings.TrimSpace(payload.Severity)); sev != "" {
		subject = fmt.Sprintf("[%s] %s", sev, subject)
	}

	p := mail.NewPersonalization()
	p.AddTos(c.to...)

	m := mail.NewV3Mail()
	m.SetFrom(c.from)
	m.Subject = subject
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", payload.Body))
	if payload.ID != "" {
		m.SetHeader("X-Alert-ID", payload.ID)
	}
	return m
}
