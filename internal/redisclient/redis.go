// Package redisclient wraps go-redis for the external-KV session store.
package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optionchainsim/service/internal/config"
)

// Client wraps a redis.Client for the session store backend.
type Client struct {
	rdb *redis.Client
}

// New creates a Redis client from the provided config.
func New(cfg *config.Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Username: cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return v, err
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = redis.Nil
