package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"share-analytics-service/internal/logger"
)

// RedisClient wraps redis.Client with centralized connection pooling.
// It is constructed once in main and injected everywhere it is needed;
// there is deliberately no package-level instance.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Log.Info("Redis client connected",
		zap.String("address", addr),
	)

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromExisting wraps an already-connected client (used by tests)
func NewRedisClientFromExisting(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Get retrieves a string value
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

// GetInt retrieves an integer value, returning 0 for a missing key
func (rc *RedisClient) GetInt(ctx context.Context, key string) (int64, error) {
	val, err := rc.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// SetNX sets a key with a TTL only if it does not already exist.
// Returns true when the key was created by this call.
func (rc *RedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return rc.client.SetNX(ctx, key, value, ttl).Result()
}

// Del deletes keys, returning how many existed
func (rc *RedisClient) Del(ctx context.Context, keys ...string) (int64, error) {
	return rc.client.Del(ctx, keys...).Result()
}

// Expire sets an expiration timeout on a key
func (rc *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return rc.client.Expire(ctx, key, ttl).Err()
}

// IncrBy increments a key by a value
func (rc *RedisClient) IncrBy(ctx context.Context, key string, increment int64) (int64, error) {
	return rc.client.IncrBy(ctx, key, increment).Result()
}

// LRange retrieves a range from a list
func (rc *RedisClient) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return rc.client.LRange(ctx, key, start, stop).Result()
}

// ZRevRangeWithScores returns the highest-scored members of a sorted set
func (rc *RedisClient) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	return rc.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
}

// ZCard returns the cardinality of a sorted set
func (rc *RedisClient) ZCard(ctx context.Context, key string) (int64, error) {
	return rc.client.ZCard(ctx, key).Result()
}

// ZRem removes members from a sorted set, returning how many were removed
func (rc *RedisClient) ZRem(ctx context.Context, key string, members ...interface{}) (int64, error) {
	return rc.client.ZRem(ctx, key, members...).Result()
}

// HGetAll gets all fields from a hash
func (rc *RedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return rc.client.HGetAll(ctx, key).Result()
}

// Scan iterates keys matching a pattern, invoking fn for each batch.
// SCAN is used instead of KEYS so a namespace purge never blocks the store.
func (rc *RedisClient) Scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Pipeline returns a non-transactional pipeline for batched reads
func (rc *RedisClient) Pipeline() redis.Pipeliner {
	return rc.client.Pipeline()
}

// TxPipelined runs fn inside a MULTI/EXEC transaction so all queued writes
// become visible atomically to concurrent readers
func (rc *RedisClient) TxPipelined(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	_, err := rc.client.TxPipelined(ctx, fn)
	return err
}
