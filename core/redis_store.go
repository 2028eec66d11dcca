// Package core: Redis-backed Memory provider.
//
// RedisStore holds persisted state machine snapshots in Redis so the same
// principal sees the same cart, list, and store selection from any device.
// Keys are already namespaced per (subsystem, principal) by Namespace(), so
// the store itself does no extra prefixing beyond an optional deployment
// prefix. Last write wins; there is no cross-session conflict resolution.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a Redis-backed implementation of the Memory interface
type RedisStore struct {
	client *redis.Client
	prefix string
	logger Logger
}

// RedisStoreOptions configures the Redis store
type RedisStoreOptions struct {
	RedisURL string
	Prefix   string // Optional deployment prefix prepended to every key
	Logger   Logger // Optional logger
}

// NewRedisStore creates a Redis-backed Memory provider and verifies the
// connection with a short ping.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.Logger == nil {
		opts.Logger = &NoOpLogger{}
	}
	if opts.RedisURL == "" {
		opts.Logger.Error("Failed to initialize Redis store", map[string]interface{}{
			"error": "Redis URL is required",
		})
		return nil, fmt.Errorf("redis URL is required: %w", ErrInvalidConfiguration)
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		opts.Logger.Error("Failed to parse Redis URL", map[string]interface{}{
			"error":     err,
			"redis_url": opts.RedisURL,
		})
		return nil, fmt.Errorf("invalid Redis URL: %w", ErrInvalidConfiguration)
	}

	client := redis.NewClient(redisOpt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		opts.Logger.Error("Failed to connect to Redis", map[string]interface{}{
			"error": err,
		})
		return nil, fmt.Errorf("failed to connect to Redis: %w", ErrConnectionFailed)
	}

	store := &RedisStore{
		client: client,
		prefix: opts.Prefix,
		logger: opts.Logger,
	}

	store.logger.Info("Redis store connected", map[string]interface{}{
		"prefix": opts.Prefix,
	})

	return store, nil
}

// formatKey prepends the deployment prefix, if any
func (r *RedisStore) formatKey(key string) string {
	if r.prefix != "" {
		return fmt.Sprintf("%s:%s", r.prefix, key)
	}
	return key
}

// Get retrieves a value. An absent key yields "" with no error, matching
// the Memory contract.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.formatKey(key)).Result()
	if err == redis.Nil {
		r.logger.Debug("Memory lookup", map[string]interface{}{
			"operation": "memory_get",
			"key":       key,
			"result":    "miss",
		})
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value with optional TTL (0 = no expiry)
func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.formatKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.formatKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Exists checks whether a value is stored under key
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.formatKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// HealthCheck verifies the connection is alive
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
