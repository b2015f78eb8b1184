package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/migrate"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for the reporting database and Redis.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ReportingDSN builds the pgx DSN of the reporting database.
func ReportingDSN(c config.DBConfig) string {
	// url.URL escapes special characters in credentials.
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func openPool(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", ReportingDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One job writes at a time; the pool only needs headroom for the admin CLI.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func pingDB(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func logConnected(ctx context.Context, cfg DatabaseConfig) {
	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}
}

// ConnectDB opens and pings the reporting database. An unreachable server is
// an error; the admin commands use it.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := openPool(cfg.DBConfig)
	if err != nil {
		return nil, err
	}
	if pingErr := pingDB(ctx, db); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, pingErr
	}
	logConnected(ctx, cfg)
	return db, nil
}

// OpenDB opens the reporting pool for the daemon. The pool dials lazily, so an
// unreachable server only logs a warning and the first write reconnects.
func OpenDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := openPool(cfg.DBConfig)
	if err != nil {
		return nil, err
	}
	if pingErr := pingDB(ctx, db); pingErr != nil {
		if cfg.Logger != nil {
			cfg.Logger.WarnContext(ctx, "reporting database unreachable at startup",
				"host", cfg.DBConfig.Host,
				"port", cfg.DBConfig.Port,
				"database", cfg.DBConfig.Name,
				"error", pingErr,
			)
		}
		return db, nil
	}
	logConnected(ctx, cfg)
	return db, nil
}

// RunMigrations applies the embedded reporting schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}

// ConnectRedis connects to Redis in direct, sentinel or cluster mode.
//
//nolint:ireturn // the concrete client depends on the configured topology.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	client, addrDesc, err := newRedisClient(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "redis connected", "addr", addrDesc)
	}
	return client, nil
}

//nolint:ireturn // the concrete client depends on the configured topology.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	switch {
	case cfg.UseCluster:
		opts, err := redisOptions(cfg, normalizeAddrs(cfg.ClusterNodes))
		if err != nil {
			return nil, "", err
		}
		return redis.NewClusterClient(opts.Cluster()), "cluster:" + strings.Join(opts.Addrs, ","), nil
	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		opts := &redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		}
		return redis.NewFailoverClient(opts.Failover()), "sentinel:" + cfg.SentinelMasterName, nil
	default:
		opts, err := redisOptions(cfg, nil)
		if err != nil {
			return nil, "", err
		}
		return redis.NewClient(opts.Simple()), opts.Addrs[0], nil
	}
}

// redisOptions resolves addresses and credentials. A redis:// or rediss:// URI
// supplies the address, user, password and TLS settings when addrs is empty.
func redisOptions(cfg config.RedisConfig, addrs []string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{Addrs: addrs, Password: cfg.Password}
	if len(addrs) > 0 {
		return opts, nil
	}

	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("redis configuration requires a URI or node list")
	}
	if !isRedisURL(uri) {
		opts.Addrs = []string{uri}
		return opts, nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return opts, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
