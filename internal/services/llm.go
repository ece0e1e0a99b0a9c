package services

import (
	"context"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// LLMService defines the interface for interacting with the narrative provider
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates the narrator's reply to a prepared message list
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}
