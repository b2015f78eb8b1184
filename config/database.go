package config

import (
	"strings"
	"time"
)

// DBConfig contains the reporting PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"eligibility"`
	Password string `env:"PASSWORD"                envDefault:"eligibility"`
	Name     string `env:"NAME"                    envDefault:"eligibility"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart applies the embedded migrations before the daemon first writes.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	// WriteTimeout bounds a single destination batch write.
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"2m"`
}

// RedisConfig contains Redis configuration. Redis is optional and only backs
// the alert forwarding rate limiter.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// KeyPrefix namespaces every key written by this service.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"eligibility-sync:"`
}

// Sanitize normalises Redis settings.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	if c.KeyPrefix = strings.TrimSpace(c.KeyPrefix); c.KeyPrefix != "" && !strings.HasSuffix(c.KeyPrefix, ":") {
		c.KeyPrefix += ":"
	}
}
