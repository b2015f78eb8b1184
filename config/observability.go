package config

import (
	"strings"
	"time"
)

const defaultObservabilityName = "eligibility-sync"

// ObservabilityConfig groups configuration that controls metrics and alert fan-out.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to external sinks such as StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"eligibility_sync"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
	c.Prefix = strings.TrimSpace(c.Prefix)
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls secondary alert transports.
type ObservabilityNotificationsConfig struct {
	Enabled    bool                        `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration               `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                         `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackNotificationConfig     `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	PagerDuty  PagerDutyNotificationConfig `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_PAGERDUTY_"`
	Email      EmailNotificationConfig     `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_EMAIL_"`
	SendGrid   SendGridNotificationConfig  `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SENDGRID_"`
}

// Sanitize normalises notification configuration values.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}

	c.Slack.sanitize()
	c.PagerDuty.sanitize()
	c.Email.sanitize()
	c.SendGrid.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		c.PagerDuty.Enabled = false
		c.Email.Enabled = false
		c.SendGrid.Enabled = false
		return
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}
	if c.PagerDuty.Enabled && c.PagerDuty.RoutingKey == "" {
		c.PagerDuty.Enabled = false
	}
	if c.Email.Enabled && (c.Email.Host == "" || c.Email.From == "" || len(c.Email.To) == 0) {
		c.Email.Enabled = false
	}
	if c.SendGrid.Enabled && (c.SendGrid.APIKey == "" || c.SendGrid.From == "" || len(c.SendGrid.To) == 0) {
		c.SendGrid.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"eligibility-sync"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// PagerDutyNotificationConfig controls PagerDuty Events API v2 fan-out.
type PagerDutyNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"eligibility-sync"`
	Component  string `env:"COMPONENT"   envDefault:"scheduler"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = defaultObservabilityName
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = "scheduler"
	}
}

// EmailNotificationConfig controls SMTP delivery.
type EmailNotificationConfig struct {
	Enabled  bool     `env:"ENABLED"  envDefault:"false"`
	Host     string   `env:"HOST"`
	Port     int      `env:"PORT"     envDefault:"587"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	From     string   `env:"FROM"`
	To       []string `env:"TO"`
	// Security is one of starttls, tls, none.
	Security string `env:"SECURITY" envDefault:"starttls"`
}

func (c *EmailNotificationConfig) sanitize() {
	c.Host = strings.TrimSpace(c.Host)
	c.Username = strings.TrimSpace(c.Username)
	c.From = strings.TrimSpace(c.From)
	c.To = trimList(c.To)
	c.Security = strings.ToLower(strings.TrimSpace(c.Security))
	if c.Port <= 0 {
		c.Port = 587
	}
}

// SendGridNotificationConfig controls delivery through the SendGrid API.
type SendGridNotificationConfig struct {
	Enabled  bool     `env:"ENABLED"   envDefault:"false"`
	APIKey   string   `env:"API_KEY"`
	From     string   `env:"FROM"`
	FromName string   `env:"FROM_NAME" envDefault:"eligibility-sync"`
	To       []string `env:"TO"`
}

func (c *SendGridNotificationConfig) sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.From = strings.TrimSpace(c.From)
	c.To = trimList(c.To)
	if c.FromName = strings.TrimSpace(c.FromName); c.FromName == "" {
		c.FromName = defaultObservabilityName
	}
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
