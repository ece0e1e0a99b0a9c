package storage

import (
	"context"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// DefaultHistoryLimit caps how many messages are kept per character.
const DefaultHistoryLimit = 200

// Storage defines a unified interface for all storage operations.
// Characters and their conversation history are both keyed by
// (player, campaign).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Character operations. LoadCharacter returns nil, nil when no
	// character exists for the key.
	SaveCharacter(ctx context.Context, c *character.Character) error
	LoadCharacter(ctx context.Context, key character.Key) (*character.Character, error)
	DeleteCharacter(ctx context.Context, key character.Key) error

	// Conversation history, oldest first. LoadHistory returns at most limit
	// of the most recent messages; limit <= 0 returns everything kept.
	AppendHistory(ctx context.Context, key character.Key, msgs ...chat.ChatMessage) error
	LoadHistory(ctx context.Context, key character.Key, limit int) ([]chat.ChatMessage, error)
	DeleteHistory(ctx context.Context, key character.Key) error
}
