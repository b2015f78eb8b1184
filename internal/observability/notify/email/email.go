// Package email forwards alerts over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/target/eligibility-sync/internal/observability/notify"
)

// Connection security modes.
const (
	SecurityNone     = "none"
	SecurityStartTLS = "starttls"
	SecurityTLS      = "tls"
)

// Config captures SMTP delivery settings.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	To         []string
	Security   string
	Timeout    time.Duration
	RetryLimit int
}

// Client delivers alerts as plain-text mail. One message is sent per recipient.
type Client struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	to         []string
	security   string
	timeout    time.Duration
	retryLimit int
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg and builds an SMTP client.
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		host:       strings.TrimSpace(cfg.Host),
		port:       cfg.Port,
		username:   strings.TrimSpace(cfg.Username),
		password:   cfg.Password,
		from:       strings.TrimSpace(cfg.From),
		to:         uniqueAddresses(cfg.To),
		timeout:    cfg.Timeout,
		retryLimit: max(cfg.RetryLimit, 0),
	}
	switch security := strings.ToLower(strings.TrimSpace(cfg.Security)); security {
	case SecurityNone, SecurityStartTLS, SecurityTLS:
		c.security = security
	case "":
		c.security = SecurityStartTLS
	default:
		return nil, fmt.Errorf("smtp security %q must be one of none, starttls, tls", cfg.Security)
	}
	if c.port <= 0 {
		c.port = 587
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}

	var errs []error
	if c.host == "" {
		errs = append(errs, errors.New("smtp host is required"))
	}
	if c.from == "" {
		errs = append(errs, errors.New("smtp from address is required"))
	}
	if len(c.to) == 0 {
		errs = append(errs, errors.New("at least one smtp recipient is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// SendAlert mails the alert to every recipient and joins per-recipient failures.
func (c *Client) SendAlert(ctx context.Context, payload notify.AlertPayload) error {
	var errs []error
	for _, rcpt := range c.to {
		msg := c.buildMessage(payload, rcpt)
		err := notify.Retry(ctx, c.retryLimit, func(ctx context.Context) error {
			return c.send(ctx, rcpt, msg)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rcpt, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("email delivery failed: %w", err)
	}
	return nil
}

func (c *Client) buildMessage(payload notify.AlertPayload, recipient string) []byte {
	occurred := payload.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	subject := strings.NewReplacer("\r", " ", "\n", " ").Replace(payload.Subject)
	headers := []string{
		"From: " + c.from,
		"To: " + recipient,
		"Subject: " + subject,
		"Date: " + occurred.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	if payload.ID != "" {
		headers = append(headers, "X-Alert-ID: "+payload.ID)
	}
	body := strings.ReplaceAll(payload.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body + "\r\n")
}

func (c *Client) send(ctx context.Context, recipient string, message []byte) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(c.from); err != nil {
		return fmt.Errorf("smtp MAIL: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp RCPT: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	return client.Quit()
}

func (c *Client) connect(ctx context.Context) (*smtp.Client, error) {
	address := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	dialer := &net.Dialer{Timeout: c.timeout}
	tlsConfig := &tls.Config{ServerName: c.host, MinVersion: tls.VersionTLS12}

	var (
		conn net.Conn
		err  error
	)
	if c.security == SecurityTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", address)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", address, err)
	}
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	if c.security == SecurityStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			_ = client.Close()
			return nil, errors.New("smtp server does not support STARTTLS")
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp STARTTLS: %w", err)
		}
	}
	if c.username != "" {
		if err := client.Auth(smtp.PlainAuth("", c.username, c.password, c.host)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}
	return client, nil
}

func uniqueAddresses(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, addr := range in {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}
