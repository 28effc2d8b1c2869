package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys written by this service.
const DefaultRedisPrefix = "voucher:qr:"

// Redis is a Store backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// ParseRedisOptions accepts either a redis:// URL or a bare host:port.
func ParseRedisOptions(redisURL string) (*redis.Options, error) {
	trimmed := strings.TrimSpace(redisURL)
	if trimmed == "" {
		return nil, fmt.Errorf("cache: empty redis url")
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		opt, errParse := redis.ParseURL(trimmed)
		if errParse != nil {
			return nil, fmt.Errorf("cache: parse redis url: %w", errParse)
		}
		return opt, nil
	}
	return &redis.Options{Addr: trimmed}, nil
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opt, errParse := ParseRedisOptions(redisURL)
	if errParse != nil {
		return nil, errParse
	}
	client := redis.NewClient(opt)
	if errPing := client.Ping(ctx).Err(); errPing != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", errPing)
	}
	return NewRedisWithClient(client, prefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string { return r.prefix + key }

// Get fetches a value; a missing key is not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, errGet := r.client.Get(ctx, r.key(key)).Bytes()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: redis get: %w", errGet)
	}
	return raw, true, nil
}

// Set writes a value with the given expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if errSet := r.client.Set(ctx, r.key(key), value, ttl).Err(); errSet != nil {
		return fmt.Errorf("cache: redis set: %w", errSet)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
