package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const notificationKeyPrefix = "redsys:notify:"

// RedisCache remembers applied notifications by order and signature.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache accepts either a redis:// URL or a host:port address.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return &RedisCache{client: redis.NewClient(opt)}, nil
	}
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: redisURL})}, nil
}

func (c *RedisCache) Seen(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, notificationKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Remember(ctx context.Context, key string, paymentStatus string, ttl time.Duration) error {
	return c.client.Set(ctx, notificationKeyPrefix+key, paymentStatus, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
