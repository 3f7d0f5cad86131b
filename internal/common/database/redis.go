package database

import (
	"context"
	"fmt"
	"time"

	"credit-risk-console/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds a single connectivity check.
const pingTimeout = 5 * time.Second

// RedisClient holds the connection behind the redis storage backend.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a small pool; the store only ever touches one key.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     5,
		MinIdleConns: 1,
	})
	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", c.Target(), err)
	}
	return nil
}

// Target names the server for logs. Credentials are never included.
func (c *RedisClient) Target() string {
	opts := c.Client.Options()
	return fmt.Sprintf("%s/%d", opts.Addr, opts.DB)
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
