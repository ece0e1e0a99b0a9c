package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// MockStorage is an in-memory implementation of Storage for testing.
// Characters are copied on the way in and out, like a real store.
type MockStorage struct {
	mu         sync.RWMutex
	characters map[character.Key]*character.Character
	history    map[character.Key][]chat.ChatMessage
	pingError  error
	saveError  error
	loadError  error
	saveCount  int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		characters: make(map[character.Key]*character.Character),
		history:    make(map[character.Key][]chat.ChatMessage),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every SaveCharacter fail with err until cleared.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError makes every LoadCharacter fail with err until cleared.
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// SaveCount returns how many saves succeeded.
func (m *MockStorage) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveCharacter stores a copy of c
func (m *MockStorage) SaveCharacter(ctx context.Context, c *character.Character) error {
	if c == nil {
		return errors.New("character cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cp := c.Clone()
	cp.UpdatedAt = time.Now().UTC()
	m.characters[c.Key] = cp
	m.saveCount++
	return nil
}

// LoadCharacter returns a copy of the stored character, or nil, nil
func (m *MockStorage) LoadCharacter(ctx context.Context, key character.Key) (*character.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	c, exists := m.characters[key]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return c.Clone(), nil
}

// DeleteCharacter removes a character
func (m *MockStorage) DeleteCharacter(ctx context.Context, key character.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.characters, key)
	return nil
}

// AppendHistory appends messages to a character's history
func (m *MockStorage) AppendHistory(ctx context.Context, key character.Key, msgs ...chat.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := append(m.history[key], msgs...)
	if len(h) > DefaultHistoryLimit {
		h = h[len(h)-DefaultHistoryLimit:]
	}
	m.history[key] = h
	return nil
}

// LoadHistory returns the most recent messages, oldest first
func (m *MockStorage) LoadHistory(ctx context.Context, key character.Key, limit int) ([]chat.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[key]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]chat.ChatMessage(nil), h...), nil
}

// DeleteHistory clears a character's history
func (m *MockStorage) DeleteHistory(ctx context.Context, key character.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, key)
	return nil
}
