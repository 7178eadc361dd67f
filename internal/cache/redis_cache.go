package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const insightKeyPrefix = "eb_insight:"

type RedisInsightCache struct {
	client *redis.Client
}

func NewRedisInsightCache(addr string, password string, db int) *RedisInsightCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisInsightCache{client: client}
}

func (c *RedisInsightCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisInsightCache) Close() error {
	return c.client.Close()
}

func (c *RedisInsightCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, insightKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisInsightCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if value == "" {
		return nil
	}
	return c.client.Set(ctx, insightKeyPrefix+key, value, ttl).Err()
}
