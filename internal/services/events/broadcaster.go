package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeRequestQueued     EventType = "request.queued"
	EventTypeRequestProcessing EventType = "request.processing"
	EventTypeRequestCompleted  EventType = "request.completed"
	EventTypeRequestFailed     EventType = "request.failed"
	EventTypeCharacterUpdated  EventType = "character.updated"
)

// Event represents a generic event structure
type Event struct {
	Type        EventType              `json:"type"`
	RequestID   string                 `json:"request_id,omitempty"`
	CharacterID string                 `json:"character_id,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying one character's events.
func Channel(key character.Key) string {
	return "character-events:" + key.String()
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishRequestQueued publishes a request.queued event
func (b *Broadcaster) PublishRequestQueued(ctx context.Context, key character.Key, requestID string, requestType string) error {
	return b.publish(ctx, key, Event{
		Type:      EventTypeRequestQueued,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status": "queued",
			"type":   requestType,
		},
	})
}

// PublishRequestProcessing publishes a request.processing event
func (b *Broadcaster) PublishRequestProcessing(ctx context.Context, key character.Key, requestID string, requestType string, userMessage string) error {
	return b.publish(ctx, key, Event{
		Type:      EventTypeRequestProcessing,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status":       "processing",
			"type":         requestType,
			"user_message": userMessage,
		},
	})
}

// PublishRequestCompleted publishes a request.completed event
func (b *Broadcaster) PublishRequestCompleted(ctx context.Context, key character.Key, requestID string, result interface{}) error {
	return b.publish(ctx, key, Event{
		Type:      EventTypeRequestCompleted,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishRequestFailed publishes a request.failed event
func (b *Broadcaster) PublishRequestFailed(ctx context.Context, key character.Key, requestID string, errorMsg string) error {
	return b.publish(ctx, key, Event{
		Type:      EventTypeRequestFailed,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// PublishCharacterUpdated announces that the stored character changed.
func (b *Broadcaster) PublishCharacterUpdated(ctx context.Context, key character.Key, level int, health int) error {
	return b.publish(ctx, key, Event{
		Type: EventTypeCharacterUpdated,
		Data: map[string]interface{}{
			"level":  level,
			"health": health,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, key character.Key, event Event) error {
	channel := Channel(key)
	event.CharacterID = key.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}
