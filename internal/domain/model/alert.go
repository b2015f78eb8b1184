//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"
)

// AlertSeverity represents the severity level of an alert.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityInfo     AlertSeverity = "info"
)

// Valid returns true if the alert severity is valid.
func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityCritical, AlertSeverityWarning, AlertSeverityInfo:
		return true
	default:
		return false
	}
}

// String returns the string representation of the alert severity.
func (s AlertSeverity) String() string {
	return string(s)
}

// Alert is a durable record of a failure or operational event.
// Alerts are immutable once recorded.
type Alert struct {
	ID        string        `json:"id"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Severity  AlertSeverity `json:"severity"`
	Job       string        `json:"job,omitempty"`
	Host      string        `json:"host"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewAlertRequest carries the caller-supplied fields of an alert.
// The sink fills in ID, host and timestamp.
type NewAlertRequest struct {
	Subject  string
	Body     string
	Severity AlertSeverity
	Job      string
}

// Normalize trims the request and applies the default severity.
func (r *NewAlertRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Job = strings.TrimSpace(r.Job)
	if r.Subject == "" {
		r.Subject = "Untitled alert"
	}
	if !r.Severity.Valid() {
		r.Severity = AlertSeverityCritical
	}
}

// AlertHistoryEntry is one parsed line of the alert history log.
type AlertHistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
}
