package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Reporting database and Redis configuration
//   - services.go: Scheduler, fetch retry and pipeline configuration
//   - eligibility.go: Eligibility API client configuration
//   - alerts.go: Alert sink configuration
//   - observability.go: Metrics and secondary alert transports
//   - sources.go: The YAML sources file describing jobs
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFile receives a copy of the structured log stream. Empty disables it.
	LogFile string `env:"LOG_FILE" envDefault:"scheduler.log"`

	// SourcesFile is the YAML file listing the configured data sources.
	SourcesFile string `env:"SOURCES_FILE" envDefault:"sources.yaml"`

	// Reporting database and cache configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Job scheduling and execution
	Scheduler SchedulerConfig
	Fetch     FetchConfig
	Pipeline  PipelineConfig

	// Eligibility API client configuration
	Eligibility EligibilityAPIConfig `envPrefix:"ELIGIBILITY_API_"`

	// Alert sink configuration
	Alerts AlertsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFile = strings.TrimSpace(c.LogFile)
	c.SourcesFile = strings.TrimSpace(c.SourcesFile)

	c.Redis.Sanitize()
	c.Scheduler.Sanitize()
	c.Fetch.Sanitize()
	c.Pipeline.Sanitize()
	c.Eligibility.Sanitize()
	c.Alerts.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFileHint is the log file name quoted in alert bodies.
func (c *AppConfig) LogFileHint() string {
	if c.LogFile == "" {
		return "application log"
	}
	return c.LogFile
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
