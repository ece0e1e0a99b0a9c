package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const (
	characterPrefix = "character:"
	historyPrefix   = "history:"
)

// RedisStorage keeps characters as JSON strings and history as capped lists.
// Neither expires: a character lives until it is deleted.
type RedisStorage struct {
	client       *redis.Client
	logger       *slog.Logger
	historyLimit int
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opt = parsed
	}
	return NewRedisStorageWithClient(redis.NewClient(opt), logger), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStorage{
		client:       client,
		logger:       logger,
		historyLimit: storage.DefaultHistoryLimit,
	}
}

// Client returns the underlying Redis client for components that share it.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Character operations

func (r *RedisStorage) SaveCharacter(ctx context.Context, c *character.Character) error {
	if c == nil {
		return fmt.Errorf("character cannot be nil")
	}
	if err := c.Key.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(c)
	if err != nil {
		r.logger.Error("Failed to marshal character", "character", c.Key.String(), "error", err)
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	if err := r.client.Set(ctx, characterPrefix+c.Key.String(), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save character", "character", c.Key.String(), "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadCharacter(ctx context.Context, key character.Key) (*character.Character, error) {
	data, err := r.client.Get(ctx, characterPrefix+key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("Character not found", "character", key.String())
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load character", "character", key.String(), "error", err)
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var c character.Character
	if err := json.Unmarshal(data, &c); err != nil {
		r.logger.Error("Failed to unmarshal character", "character", key.String(), "error", err)
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	c.Key = key
	return &c, nil
}

func (r *RedisStorage) DeleteCharacter(ctx context.Context, key character.Key) error {
	if err := r.client.Del(ctx, characterPrefix+key.String()).Err(); err != nil {
		r.logger.Error("Failed to delete character", "character", key.String(), "error", err)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

// History operations

func (r *RedisStorage) AppendHistory(ctx context.Context, key character.Key, msgs ...chat.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	listKey := historyPrefix + key.String()
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, listKey, values...)
	pipe.LTrim(ctx, listKey, int64(-r.historyLimit), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to append history", "character", key.String(), "error", err)
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadHistory(ctx context.Context, key character.Key, limit int) ([]chat.ChatMessage, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := r.client.LRange(ctx, historyPrefix+key.String(), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	msgs := make([]chat.ChatMessage, 0, len(raw))
	for _, entry := range raw {
		var m chat.ChatMessage
		if err := json.Unmarshal([]byte(entry), &m); err != nil {
			r.logger.Warn("Skipping malformed history entry", "character", key.String(), "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (r *RedisStorage) DeleteHistory(ctx context.Context, key character.Key) error {
	if err := r.client.Del(ctx, historyPrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}
