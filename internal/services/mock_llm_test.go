package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI()

	if err := mockService.InitModel(context.Background(), "test-model"); err != nil {
		t.Errorf("InitModel failed: %v", err)
	}
	if len(mockService.InitModelCalls) != 1 || mockService.InitModelCalls[0] != "test-model" {
		t.Errorf("Expected one InitModel call for test-model, got %v", mockService.InitModelCalls)
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "Hello"},
	}
	response, err := mockService.Chat(context.Background(), messages)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if response.Message != DefaultMockReply {
		t.Errorf("Expected default reply, got '%s'", response.Message)
	}
	if mockService.CallCount() != 1 {
		t.Errorf("Expected 1 Chat call, got %d", mockService.CallCount())
	}
	if got := mockService.LastCall(); len(got) != 1 || got[0].Content != "Hello" {
		t.Errorf("Unexpected recorded call %+v", got)
	}
}

func TestMockLLMService_CustomBehavior(t *testing.T) {
	mockService := NewMockLLMAPI().Reply("Custom reply")

	response, err := mockService.Chat(context.Background(), nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if response.Message != "Custom reply" {
		t.Errorf("Expected 'Custom reply', got '%s'", response.Message)
	}

	mockService.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, fmt.Errorf("provider down")
	}
	if _, err := mockService.Chat(context.Background(), nil); err == nil {
		t.Error("Expected error from custom ChatFunc")
	}
	if mockService.LastCall() != nil {
		t.Error("Expected nil messages to be recorded as nil")
	}
}
