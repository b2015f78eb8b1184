package alertsink

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/target/eligibility-sync/internal/core"
)

// ForwardKeyPrefix namespaces the rate-limit keys in the shared cache.
const ForwardKeyPrefix = "alerts:forward:"

// ForwardKey returns the cache key guarding forwarding of subject.
func ForwardKey(subject string) string {
	sum := sha256.Sum256([]byte(subject))
	return ForwardKeyPrefix + hex.EncodeToString(sum[:])[:16]
}

// RedisLimiter rate-limits forwarding with SET NX so several daemons sharing
// one Redis forward a given subject once per window.
type RedisLimiter struct {
	cache  core.CacheRepository
	logger *slog.Logger
}

var _ core.AlertLimiter = (*RedisLimiter)(nil)

// NewRedisLimiter builds a limiter on top of a cache repository.
func NewRedisLimiter(cache core.CacheRepository, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{cache: cache, logger: logger.With("component", "alert_limiter")}
}

// Allow claims the subject's key for window. Cache errors fail open.
func (l *RedisLimiter) Allow(ctx context.Context, subject string, window time.Duration) bool {
	if window <= 0 || l.cache == nil {
		return true
	}
	ok, err := l.cache.SetIfNotExists(ctx, ForwardKey(subject), []byte("1"), window)
	if err != nil {
		l.logger.WarnContext(ctx, "alert limiter unavailable, forwarding anyway", "error", err)
		return true
	}
	return ok
}

// MemoryLimiter is the in-process limiter used when Redis is not configured.
// It remembers at most Capacity subjects, evicting the least recently claimed.
type MemoryLimiter struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List
	items map[string]*list.Element
	now   func() time.Time
}

type claim struct {
	key    string
	expiry time.Time
}

// MemoryLimiterConfig groups constructor options.
type MemoryLimiterConfig struct {
	Capacity int
	Now      func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter.
func NewMemoryLimiter(cfg MemoryLimiterConfig) *MemoryLimiter {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1024
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &MemoryLimiter{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   nowFn,
	}
}

var _ core.AlertLimiter = (*MemoryLimiter)(nil)

// Allow returns true and starts a new window when subject has no live claim.
func (l *MemoryLimiter) Allow(_ context.Context, subject string, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	key := ForwardKey(subject)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if el, found := l.items[key]; found {
		c := el.Value.(*claim)
		if now.Before(c.expiry) {
			return false
		}
		c.expiry = now.Add(window)
		l.ll.MoveToFront(el)
		return true
	}

	l.items[key] = l.ll.PushFront(&claim{key: key, expiry: now.Add(window)})
	for l.ll.Len() > l.cap {
		oldest := l.ll.Back()
		l.ll.Remove(oldest)
		delete(l.items, oldest.Value.(*claim).key)
	}
	return true
}

// Reset drops every claim.
func (l *MemoryLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ll.Init()
	clear(l.items)
}
