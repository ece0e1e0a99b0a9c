package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client for queue operations
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewClient creates a new queue client
func NewClient(redisURL string, logger *slog.Logger) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis for queue service", "addr", opt.Addr)

	return &Client{
		rdb:    rdb,
		logger: logger,
	}, nil
}

// NewClientFromRedis wraps a client that is already connected.
func NewClientFromRedis(rdb *redis.Client, logger *slog.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetRedisClient returns the underlying Redis client for direct operations
func (c *Client) GetRedisClient() *redis.Client {
	return c.rdb
}
