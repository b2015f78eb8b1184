package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultBlackoutStart = 22
	defaultBlackoutEnd   = 2
)

// SchedulerConfig contains scheduler loop configuration.
type SchedulerConfig struct {
	// Tick is how often the background loop wakes to evaluate due jobs.
	Tick time.Duration `env:"SCHEDULER_TICK" envDefault:"60s"`

	// Interval is the cadence of every configured job.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"4h"`

	// BlackoutStart and BlackoutEnd bound the daily window, in local hours,
	// during which jobs are skipped. The window wraps midnight when start > end.
	BlackoutStart int `env:"SCHEDULER_BLACKOUT_START" envDefault:"22"`
	BlackoutEnd   int `env:"SCHEDULER_BLACKOUT_END"   envDefault:"2"`

	// Timezone is the IANA zone for blackout hours. Empty uses the host zone.
	Timezone string `env:"SCHEDULER_TIMEZONE"`

	// RunOnStart runs every job once right after startup.
	RunOnStart bool `env:"SCHEDULER_RUN_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.Tick <= 0 {
		s.Tick = time.Minute
	}
	if s.Interval <= 0 {
		s.Interval = 4 * time.Hour
	}
	if s.BlackoutStart < 0 || s.BlackoutStart > 23 {
		s.BlackoutStart = defaultBlackoutStart
	}
	if s.BlackoutEnd < 0 || s.BlackoutEnd > 23 {
		s.BlackoutEnd = defaultBlackoutEnd
	}
	s.Timezone = strings.TrimSpace(s.Timezone)
}

// Location resolves Timezone.
func (s *SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// FetchConfig contains the retry policy for source database reads.
type FetchConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `env:"FETCH_MAX_RETRIES" envDefault:"3"`

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration `env:"FETCH_RETRY_DELAY" envDefault:"5s"`

	// Classify enables fail-fast on errors that cannot succeed on retry
	// (SQL syntax, privileges, data exceptions). Disabled means every error is retried.
	Classify bool `env:"FETCH_RETRY_CLASSIFY" envDefault:"true"`

	// QueryTimeout bounds one attempt. Zero disables the bound.
	QueryTimeout time.Duration `env:"FETCH_QUERY_TIMEOUT" envDefault:"10m"`
}

// Sanitize applies guardrails to fetch configuration values.
func (f *FetchConfig) Sanitize() {
	if f.MaxRetries < 0 {
		f.MaxRetries = 0
	}
	if f.RetryDelay < 0 {
		f.RetryDelay = 0
	}
	if f.QueryTimeout < 0 {
		f.QueryTimeout = 0
	}
}

// PipelineConfig contains the record transform pipeline configuration.
type PipelineConfig struct {
	// Lookback is the rolling window of rows fetched per run.
	Lookback time.Duration `env:"PIPELINE_LOOKBACK" envDefault:"4h"`

	// AlertOnDroppedRows records a warning alert when rows are dropped.
	AlertOnDroppedRows bool `env:"PIPELINE_ALERT_ON_DROPPED_ROWS" envDefault:"true"`

	// SnapshotDir is the root for CSV audit snapshots.
	SnapshotDir string `env:"SNAPSHOT_DIR" envDefault:"iqama_data"`

	// SnapshotMaxAge removes snapshots older than this after each write. Zero keeps everything.
	SnapshotMaxAge time.Duration `env:"SNAPSHOT_MAX_AGE" envDefault:"0s"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.Lookback <= 0 {
		p.Lookback = 4 * time.Hour
	}
	if p.SnapshotDir = strings.TrimSpace(p.SnapshotDir); p.SnapshotDir == "" {
		p.SnapshotDir = "iqama_data"
	}
	if p.SnapshotMaxAge < 0 {
		p.SnapshotMaxAge = 0
	}
}
