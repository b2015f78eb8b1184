package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Scheduler.Tick != time.Minute {
		t.Fatalf("expected 60s tick, got %v", cfg.Scheduler.Tick)
	}
	if cfg.Scheduler.Interval != 4*time.Hour {
		t.Fatalf("expected 4h interval, got %v", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.BlackoutStart != 22 || cfg.Scheduler.BlackoutEnd != 2 {
		t.Fatalf("unexpected blackout window %d-%d", cfg.Scheduler.BlackoutStart, cfg.Scheduler.BlackoutEnd)
	}
	if cfg.Fetch.MaxRetries != 3 || cfg.Fetch.RetryDelay != 5*time.Second {
		t.Fatalf("unexpected retry policy %d/%v", cfg.Fetch.MaxRetries, cfg.Fetch.RetryDelay)
	}
	if cfg.Pipeline.Lookback != 4*time.Hour {
		t.Fatalf("expected 4h lookback, got %v", cfg.Pipeline.Lookback)
	}
	if cfg.Alerts.MaxFiles != 100 {
		t.Fatalf("expected 100 alert files, got %d", cfg.Alerts.MaxFiles)
	}
	if cfg.Alerts.HistoryFile != "alert_history.log" {
		t.Fatalf("unexpected history file %q", cfg.Alerts.HistoryFile)
	}
	if cfg.LogFileHint() != "scheduler.log" {
		t.Fatalf("unexpected log file hint %q", cfg.LogFileHint())
	}
}

func TestAppConfig_ParseEligibilityEnv(t *testing.T) {
	t.Setenv("ELIGIBILITY_API_URL", " https://api.example.com/eligibility ")
	t.Setenv("ELIGIBILITY_API_TIMEOUT", "12s")
	t.Setenv("ELIGIBILITY_API_TOKEN_URL", "https://auth.example.com/token")
	t.Setenv("ELIGIBILITY_API_CLIENT_ID", "sync")
	t.Setenv("ELIGIBILITY_API_CLIENT_SECRET", "secret")
	t.Setenv("ELIGIBILITY_API_SCOPES", "eligibility.read, ,coverage")
	t.Setenv("ELIGIBILITY_API_OUTCOME_EXPR", "response.outcome")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := EligibilityAPIConfig{
		URL:          "https://api.example.com/eligibility",
		Timeout:      12 * time.Second,
		TokenURL:     "https://auth.example.com/token",
		ClientID:     "sync",
		ClientSecret: "secret",
		Scopes:       []string{"eligibility.read", "coverage"},
		ClassExpr:    "class",
		OutcomeExpr:  "response.outcome",
		NoteExpr:     "note",
	}

	if !reflect.DeepEqual(cfg.Eligibility, expected) {
		t.Fatalf("unexpected eligibility configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Eligibility)
	}
	if !cfg.Eligibility.UsesClientCredentials() {
		t.Fatal("expected client credentials to be detected")
	}
}

func TestSchedulerConfig_Sanitize(t *testing.T) {
	cfg := SchedulerConfig{Tick: -1, Interval: 0, BlackoutStart: 30, BlackoutEnd: -2, Timezone: " UTC "}
	cfg.Sanitize()

	if cfg.Tick != time.Minute || cfg.Interval != 4*time.Hour {
		t.Fatalf("expected tick/interval defaults, got %v/%v", cfg.Tick, cfg.Interval)
	}
	if cfg.BlackoutStart != 22 || cfg.BlackoutEnd != 2 {
		t.Fatalf("expected blackout defaults, got %d-%d", cfg.BlackoutStart, cfg.BlackoutEnd)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %s", loc)
	}

	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected unknown timezone to fail")
	}
}

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := AppConfig{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Fatalf("level %q: expected %v, got %v", in, want, got)
		}
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: " ",
		},
		Email: EmailNotificationConfig{
			Enabled: true,
			Host:    "smtp.example.com",
			From:    "alerts@example.com",
			To:      []string{" ", ""},
		},
		SendGrid: SendGridNotificationConfig{
			Enabled: true,
			APIKey:  "key",
			From:    "alerts@example.com",
			To:      []string{" ops@example.com "},
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled without a webhook url")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled without a routing key")
	}
	if cfg.PagerDuty.Source != "eligibility-sync" {
		t.Fatalf("expected pagerduty source default, got %q", cfg.PagerDuty.Source)
	}
	if cfg.Email.Enabled {
		t.Fatal("expected email to be disabled without recipients")
	}
	if !cfg.SendGrid.Enabled || cfg.SendGrid.To[0] != "ops@example.com" {
		t.Fatalf("expected sendgrid to stay enabled with trimmed recipients, got %#v", cfg.SendGrid)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Enabled: false,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/test",
		},
		SendGrid: SendGridNotificationConfig{
			Enabled: true,
			APIKey:  "key",
			From:    "alerts@example.com",
			To:      []string{"ops@example.com"},
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled when top-level notifications disabled")
	}
	if cfg.SendGrid.Enabled {
		t.Fatal("expected sendgrid to be disabled when top-level notifications disabled")
	}
}

func TestRedisConfig_SanitizeKeyPrefix(t *testing.T) {
	cfg := RedisConfig{KeyPrefix: " elig "}
	cfg.Sanitize()
	if cfg.KeyPrefix != "elig:" {
		t.Fatalf("expected colon-terminated prefix, got %q", cfg.KeyPrefix)
	}
}

func TestEligibilityAPIConfig_UsesClientCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  EligibilityAPIConfig
		want bool
	}{
		{name: "token url", cfg: EligibilityAPIConfig{TokenURL: "https://auth/token", ClientID: "sync"}, want: true},
		{name: "issuer discovery", cfg: EligibilityAPIConfig{IssuerURL: " https://auth ", ClientID: "sync"}, want: true},
		{name: "no client id", cfg: EligibilityAPIConfig{IssuerURL: "https://auth"}},
		{name: "static token", cfg: EligibilityAPIConfig{Token: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Sanitize()
			if got := tt.cfg.UsesClientCredentials(); got != tt.want {
				t.Fatalf("UsesClientCredentials() = %v, want %v", got, tt.want)
			}
		})
	}
}
