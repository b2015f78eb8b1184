package alertsink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCache struct {
	keys map[string]bool
	err  error
	ttls []time.Duration
}

func (f *fakeCache) SetIfNotExists(_ context.Context, key string, _ []byte, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.ttls = append(f.ttls, ttl)
	if f.keys[key] {
		return false, nil
	}
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeCache) Delete(context.Context, string) (bool, error)         { return false, nil }
func (f *fakeCache) DeleteByPrefix(context.Context, string) (int, error) { return 0, nil }
func (f *fakeCache) Health(context.Context) error                       { return f.err }

func TestForwardKey(t *testing.T) {
	k := ForwardKey("Error in OSIS on etl-01")
	assert.Regexp(t, `^alerts:forward:[0-9a-f]{16}$`, k)
	assert.Equal(t, k, ForwardKey("Error in OSIS on etl-01"))
	assert.NotEqual(t, k, ForwardKey("Error in Dotcare on etl-01"))
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	l := NewRedisLimiter(cache, nil)

	assert.True(t, l.Allow(ctx, "a", time.Minute))
	assert.False(t, l.Allow(ctx, "a", time.Minute))
	assert.True(t, l.Allow(ctx, "b", time.Minute))
	assert.Equal(t, []time.Duration{time.Minute, time.Minute, time.Minute}, cache.ttls)

	assert.True(t, l.Allow(ctx, "a", 0), "zero window disables limiting")
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	l := NewRedisLimiter(&fakeCache{err: errors.New("connection refused")}, nil)
	assert.True(t, l.Allow(context.Background(), "a", time.Minute))
	assert.True(t, l.Allow(context.Background(), "a", time.Minute))
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(MemoryLimiterConfig{Capacity: 2, Now: func() time.Time { return now }})
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "a", time.Minute))
	assert.False(t, l.Allow(ctx, "a", time.Minute))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow(ctx, "a", time.Minute), "window elapsed")

	assert.True(t, l.Allow(ctx, "b", time.Minute))
	assert.True(t, l.Allow(ctx, "c", time.Minute))
	assert.True(t, l.Allow(ctx, "a", time.Minute), "evicted as least recently claimed")

	l.Reset()
	assert.True(t, l.Allow(ctx, "b", time.Minute))
}
