package config

import (
	"strings"
	"time"
)

const defaultMaxAlertFiles = 100

// AlertsConfig controls the file-based alert sink.
type AlertsConfig struct {
	// Dir holds one file per alert plus the history log.
	Dir string `env:"ALERTS_DIR" envDefault:"alerts"`

	// HistoryFile is the append-only summary log, relative to Dir.
	HistoryFile string `env:"ALERTS_HISTORY_FILE" envDefault:"alert_history.log"`

	// MaxFiles is the retention cap on alert files.
	MaxFiles int `env:"ALERTS_MAX_FILES" envDefault:"100"`

	// ForwardWindow suppresses repeat forwarding of the same subject to
	// secondary transports. Zero disables suppression.
	ForwardWindow time.Duration `env:"ALERTS_FORWARD_WINDOW" envDefault:"15m"`

	// NotifyOnShutdown records an alert when the daemon stops on a signal.
	NotifyOnShutdown bool `env:"ALERTS_NOTIFY_ON_SHUTDOWN" envDefault:"false"`

	// SystemName identifies this deployment in secondary transports.
	SystemName string `env:"ALERTS_SYSTEM_NAME" envDefault:"eligibility-sync"`
}

// Sanitize applies guardrails to alert configuration values.
func (c *AlertsConfig) Sanitize() {
	if c.Dir = strings.TrimSpace(c.Dir); c.Dir == "" {
		c.Dir = "alerts"
	}
	if c.HistoryFile = strings.TrimSpace(c.HistoryFile); c.HistoryFile == "" {
		c.HistoryFile = "alert_history.log"
	}
	if c.MaxFiles < 1 {
		c.MaxFiles = defaultMaxAlertFiles
	}
	if c.ForwardWindow < 0 {
		c.ForwardWindow = 0
	}
	if c.SystemName = strings.TrimSpace(c.SystemName); c.SystemName == "" {
		c.SystemName = defaultObservabilityName
	}
}
