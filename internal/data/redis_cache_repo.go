package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 200

// RedisCacheRepo implements core.CacheRepository using Redis.
type RedisCacheRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCacheRepo creates a new RedisCacheRepo. Every key is namespaced with prefix.
func NewRedisCacheRepo(client redis.UniversalClient, prefix string) *RedisCacheRepo {
	return &RedisCacheRepo{client: client, prefix: prefix}
}

// SetIfNotExists atomically sets a key only if it doesn't already exist.
// Uses Redis SET with NX and TTL options for guaranteed atomicity.
func (r *RedisCacheRepo) SetIfNotExists(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	actualTTL := ttl
	if ttl <= 0 {
		actualTTL = time.Second // Minimum TTL of 1 second
	}

	// SETNX followed by EXPIRE is not atomic; SET NX PX is.
	status, err := r.client.SetArgs(ctx, r.prefix+key, value, redis.SetArgs{Mode: "NX", TTL: actualTTL}).Result()
	if err != nil {
		// An unmet NX condition is a nil reply, not a failure.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// Delete removes a key from Redis.
func (r *RedisCacheRepo) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	n, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// DeleteByPrefix removes every key under prefix using SCAN so large keyspaces
// are not blocked.
func (r *RedisCacheRepo) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	pattern := r.prefix + prefix + "*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, delErr := r.client.Del(ctx, keys...).Result()
			if delErr != nil {
				return deleted, fmt.Errorf("redis del: %w", delErr)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// Keys lists the keys under prefix, without the repository namespace.
func (r *RedisCacheRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	pattern := r.prefix + prefix + "*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return out, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, r.prefix))
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// Health checks the health of the Redis connection.
func (r *RedisCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
