package bootstrap

import (
	"context"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/data"
	"github.com/target/eligibility-sync/internal/observability/statsd"
	"github.com/target/eligibility-sync/internal/service/alertsink"
)

// AlertSinkOptions groups the collaborators of the alert sink.
type AlertSinkOptions struct {
	Config    config.AlertsConfig
	Forwarder core.AlertForwarder
	Limiter   core.AlertLimiter
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// BuildAlertSink builds the file-based alert sink.
func BuildAlertSink(opts AlertSinkOptions) *alertsink.Sink {
	return alertsink.New(alertsink.Options{
		Dir:           opts.Config.Dir,
		HistoryFile:   opts.Config.HistoryFile,
		MaxFiles:      opts.Config.MaxFiles,
		Forwarder:     opts.Forwarder,
		Limiter:       opts.Limiter,
		ForwardWindow: opts.Config.ForwardWindow,
		Metrics:       opts.Metrics,
		Logger:        opts.Logger,
	})
}

// FallbackAlertSink records alerts when configuration could not be loaded.
// It only writes files under the default alerts directory.
func FallbackAlertSink(logger *slog.Logger) *alertsink.Sink {
	var cfg config.AlertsConfig
	cfg.Sanitize()
	return BuildAlertSink(AlertSinkOptions{Config: cfg, Logger: logger})
}

// BuildLimiter returns the forwarding rate limiter. Redis backs it when
// enabled so several daemons share one window; an unreachable Redis falls back
// to the in-process limiter. The closer releases the Redis client, if any.
//
//nolint:ireturn // the limiter implementation depends on configuration.
func BuildLimiter(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (core.AlertLimiter, io.Closer) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Redis.Enabled {
		return alertsink.NewMemoryLimiter(alertsink.MemoryLimiterConfig{}), nopCloser{}
	}

	client, err := ConnectRedis(ctx, DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		logger.WarnContext(ctx, "redis unavailable, using in-process alert limiter", "error", err)
		return alertsink.NewMemoryLimiter(alertsink.MemoryLimiterConfig{}), nopCloser{}
	}
	return alertsink.NewRedisLimiter(NewCacheRepo(client, cfg.Redis), logger), client
}

// NewCacheRepo builds the namespaced cache repository shared by the limiter
// and the admin CLI.
func NewCacheRepo(client redis.UniversalClient, cfg config.RedisConfig) *data.RedisCacheRepo {
	return data.NewRedisCacheRepo(client, cfg.KeyPrefix)
}
