// Package testutil provides database and Redis fixtures for integration tests.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/eligibility-sync/internal/migrate"
)

// TestingTB is the subset of testing.TB the fixtures need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestDBConfig holds the reporting test database coordinates.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The port defaults to the
// docker-compose test profile (55432); CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "eligibility"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "eligibility"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "eligibility"),
	}
}

// DSN renders the config as a postgres URL, optionally scoped to a schema.
func (c TestDBConfig) DSN(schema string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", getEnvOrDefault("DB_SSL_MODE", "disable"))
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// resultTables lists every table written by the pipeline.
var resultTables = []string{
	"intake_primary",
	"intake_secondary",
	"eligibility_responses",
	"eligibility_dotcare",
}

// SkipIfNoTestDB skips (or fails, under TEST_REQUIRE_DB) when postgres is unreachable.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()
	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN(""))
	if err == nil {
		defer func() { closeAndLog(t, "availability check DB", db) }()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = db.PingContext(ctx)
	}
	if err == nil {
		return
	}
	if requireDB() {
		t.Fatal("Test database not available:", err)
	}
	t.Skip("Test database not available:", err)
}

// SetupTestDB opens the shared test database, migrates it and empties the result tables.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	db := openAndPing(t, DefaultTestDBConfig().DSN(""))
	migrateDB(t, db)
	CleanupTestDB(t, db)
	return db
}

// CleanupTestDB removes all rows written by the pipeline.
func CleanupTestDB(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range resultTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to clean up table %s: %v", table, err)
		}
	}
}

// WithAutoDB runs fn against a per-test schema when TEST_DB_EPHEMERAL is set,
// otherwise against the shared database, cleaning up afterwards.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	if envBool("TEST_DB_EPHEMERAL") {
		fn(SetupEphemeralSchemaDB(t))
		return
	}
	db := SetupTestDB(t)
	defer func() {
		CleanupTestDB(t, db)
		closeAndLog(t, "test DB", db)
	}()
	fn(db)
}

// SetupEphemeralSchemaDB creates a throwaway schema, migrates it and drops it on cleanup.
func SetupEphemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	cfg := DefaultTestDBConfig()
	admin := openAndPing(t, cfg.DSN(""))
	schema := schemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	db := openAndPing(t, cfg.DSN(schema))
	onCleanup(t, func() {
		closeAndLog(t, "schema DB", db)
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		if _, err := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
		closeAndLog(t, "admin DB", admin)
	})
	t.Logf("Using ephemeral schema: %s", schema)
	migrateDB(t, db)
	return db
}

func openAndPing(t TestingTB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal("Failed to open database:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeAndLog(t, "test DB", db)
		t.Fatal("Failed to connect to test database (docker-compose up -d):", err)
	}
	return db
}

func migrateDB(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := migrate.Run(ctx, db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}
}

func schemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

// TestTime returns a fixed insertion timestamp.
func TestTime() time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
}

// SetupTestRedis returns a client on a reserved logical DB, flushed before use.
// Tests are skipped when Redis is unreachable unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := testRedisAddr(t)
	if !ok {
		if requireRedis() {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		t.Fatalf("Failed to flush test Redis DB: %v", err)
	}
	onCleanup(t, func() { closeAndLog(t, "redis client", client) })
	return client
}

// testRedisAddr prefers REDIS_ADDR and otherwise tries the compose defaults.
func testRedisAddr(t TestingTB) (string, bool) {
	t.Helper()
	candidates := []string{"redis:6379", "localhost:6379", "localhost:56379"}
	if env := os.Getenv("REDIS_ADDR"); env != "" {
		candidates = []string{env}
	}
	for _, addr := range candidates {
		if pingRedis(t, addr) {
			return addr, true
		}
	}
	return "", false
}

func pingRedis(t TestingTB, addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer closeAndLog(t, "redis check", client)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Logf("Redis not available at %s: %v", addr, err)
		return false
	}
	return true
}

// reserveRedisDB picks TEST_REDIS_DB or locks a free DB in 1..15 through a key
// in DB 0, so parallel packages never flush each other's data.
func reserveRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("Invalid TEST_REDIS_DB=%q, falling back to auto-select", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	defer closeAndLog(t, "redis meta client", meta)
	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for i := 1; i <= 15; i++ {
		lockKey := fmt.Sprintf("eligibility:testutil:db_lock:%d", i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, lockKey, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		onCleanup(t, func() {
			c := redis.NewClient(&redis.Options{Addr: addr})
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := c.Del(ctx, lockKey).Err(); err != nil {
				t.Logf("warning: failed to release redis db lock %s: %v", lockKey, err)
			}
			closeAndLog(t, "redis cleanup client", c)
		})
		return i
	}
	t.Logf("Falling back to Redis DB=1 for tests at %s", addr)
	return 1
}

func onCleanup(t TestingTB, fn func()) {
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(fn)
	}
}

func closeAndLog(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
