package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaService_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body struct {
			Model    string             `json:"model"`
			Messages []chat.ChatMessage `json:"messages"`
			Stream   bool               `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body.Model)
		assert.False(t, body.Stream)
		assert.Len(t, body.Messages, 2)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"The gate creaks open."}}`))
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3", testLog())
	resp, err := svc.Chat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "narrate"},
		{Role: chat.ChatRoleUser, Content: "I push the gate"},
	})

	require.NoError(t, err)
	assert.Equal(t, "The gate creaks open.", resp.Message)
}

func TestOllamaService_ChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"bad json", http.StatusOK, `{`},
		{"empty content", http.StatusOK, `{"message":{"content":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOllamaService(server.URL, "llama3", testLog()).Chat(context.Background(), nil)
			assert.Error(t, err)
		})
	}
}

func TestOllamaService_InitModelPullsMissingModel(t *testing.T) {
	var pulled atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"mistral"}]}`))
		case "/api/pull":
			pulled.Store(true)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3", testLog())
	require.NoError(t, svc.InitModel(context.Background(), "llama3"))
	assert.True(t, pulled.Load())
}

func TestOllamaService_InitModelGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3", testLog())
	svc.readyRetries = 2
	svc.retryDelay = 10 * time.Millisecond

	assert.Error(t, svc.InitModel(context.Background(), "llama3"))
}
