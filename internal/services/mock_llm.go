package services

import (
	"context"
	"sync"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// DefaultMockReply is what MockLLMAPI answers when no ChatFunc is set.
const DefaultMockReply = "The wind carries distant voices. Nothing else stirs."

// MockLLMAPI is a mock implementation of LLMService for testing and for
// running the stack without a provider.
type MockLLMAPI struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	ChatFunc      func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// Track calls for testing
	InitModelCalls []string
	ChatCalls      []ChatCall

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

// Ensure MockLLMAPI implements LLMService
var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		ChatCalls:      make([]ChatCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Chat records the call and answers with ChatFunc or DefaultMockReply.
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{
		Messages: append([]chat.ChatMessage(nil), messages...),
	})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &chat.ChatResponse{Message: DefaultMockReply}, nil
}

// Reply makes every Chat call answer with text.
func (m *MockLLMAPI) Reply(text string) *MockLLMAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: text}, nil
	}
	return m
}

// CallCount returns how many Chat calls were made.
func (m *MockLLMAPI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// LastCall returns the messages of the most recent Chat call.
func (m *MockLLMAPI) LastCall() []chat.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ChatCalls) == 0 {
		return nil
	}
	return m.ChatCalls[len(m.ChatCalls)-1].Messages
}
