package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

func TestOpenAIService_Chat(t *testing.T) {
	var got OpenAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "A goblin leaps out!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 7}
		}`))
	}))
	defer server.Close()

	service := NewOpenAIService("test-key", "gpt-test", testLog()).WithBaseURL(server.URL)
	resp, err := service.Chat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "narrate"},
		{Role: chat.ChatRoleUser, Content: "I walk"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Message != "A goblin leaps out!" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != chat.ChatRoleSystem {
		t.Errorf("System messages should be sent inline, got %+v", got.Messages)
	}
}

func TestOpenAIService_ChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusUnauthorized, `{"error": {"message": "bad key"}}`},
		{"api error", http.StatusOK, `{"error": {"message": "bad"}}`},
		{"no choices", http.StatusOK, `{"choices": []}`},
		{"refusal", http.StatusOK, `{"choices": [{"message": {"role": "assistant", "refusal": "no"}}]}`},
		{"empty content", http.StatusOK, `{"choices": [{"message": {"role": "assistant", "content": ""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewOpenAIService("k", "m", testLog()).WithBaseURL(server.URL)
			if _, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
