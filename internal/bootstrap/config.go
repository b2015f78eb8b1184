package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/target/eligibility-sync/config"
)

// LoggerConfig controls InitLogger.
type LoggerConfig struct {
	Level slog.Level
	// File receives a copy of every record. Empty logs to Stdout only.
	File   string
	Stdout io.Writer
	// Text switches to the human-readable handler used in development.
	Text bool
}

// InitLogger initializes the structured logger and makes it the default.
// The returned closer releases the log file, if any. A log file that cannot be
// opened is reported and the logger falls back to Stdout.
func InitLogger(cfg LoggerConfig) (*slog.Logger, io.Closer) {
	out := cfg.Stdout
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	var openErr error
	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			openErr = err
		} else {
			out = io.MultiWriter(out, f)
			closer = f
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Text {
		handler = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if openErr != nil {
		logger.Error("log file unavailable, logging to stdout only", "file", cfg.File, "error", openErr)
	}
	return logger, closer
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
