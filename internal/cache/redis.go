// Redis implementation of the cache Backend, using go-redis v9.
package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBackend adapts a go-redis client to the Backend interface.
type RedisBackend struct {
	client *goredis.Client
}

// NewRedisBackend wraps an already-constructed client. Connection lifecycle
// (ping, close) belongs to the process entry point, not to this type.
func NewRedisBackend(client *goredis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get implements Backend, mapping redis.Nil onto ErrCacheMiss.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Del implements Backend.
func (b *RedisBackend) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}
