package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/models"
)

const flushScanCount = 200

// RedisStore shares estimates between instances through Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	counters
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisStoreFromConfig dials Redis lazily from cache configuration
func NewRedisStoreFromConfig(cfg config.CacheConfig, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisStore(client, cfg.KeyPrefix, ttl)
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Get retrieves a cached estimate; a missing key is a miss, not an error
func (r *RedisStore) Get(ctx context.Context, key string) (*models.Estimate, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.record(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached estimate: %w", err)
	}

	var est models.Estimate
	if err := json.Unmarshal(data, &est); err != nil {
		r.record(false)
		return nil, false, fmt.Errorf("failed to unmarshal cached estimate: %w", err)
	}
	r.record(true)
	return &est, true, nil
}

// Set stores an estimate with the configured TTL
func (r *RedisStore) Set(ctx context.Context, key string, estimate *models.Estimate) error {
	data, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("failed to marshal estimate: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache estimate: %w", err)
	}
	return nil
}

// Flush deletes every key under the store prefix
func (r *RedisStore) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", flushScanCount).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cached estimates: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cached estimates: %w", err)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	r.reset()
	return nil
}

// Stats returns hit/miss counts for this instance
func (r *RedisStore) Stats() Stats {
	return r.snapshot(0)
}

// Ping checks the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
