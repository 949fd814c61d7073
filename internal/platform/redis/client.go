// Package redis opens the Redis connection behind the candidate cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"watchlist/internal/platform/config"
)

const defaultPingTimeout = 2 * time.Second

// Client is a go-redis client that reports its own health.
type Client struct {
	*redis.Client
}

// New connects to cfg.URL and pings it. An empty URL means the cache is
// disabled and New returns a nil client without error.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	applyOverrides(opts, cfg)

	client := &Client{Client: redis.NewClient(opts)}
	if err := client.Health(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// applyOverrides copies the non-zero pool settings onto the URL-derived options.
func applyOverrides(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Health pings Redis, bounded by a short timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}
