package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// OllamaService implements LLMService against a self-hosted Ollama server.
type OllamaService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger

	readyRetries int
	retryDelay   time.Duration
}

var _ LLMService = (*OllamaService)(nil)

// NewOllamaService creates a new Ollama service instance
func NewOllamaService(baseURL string, modelName string, logger *slog.Logger) *OllamaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaService{
		baseURL:   baseURL,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger:       logger,
		readyRetries: 5,
		retryDelay:   2 * time.Second,
	}
}

// InitModel waits for the server and pulls the model if it is missing.
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName)

	if err := s.waitForReady(ctx); err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}

	ready, err := s.isModelReady(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to check model readiness: %w", err)
	}
	if ready {
		s.logger.Info("Model already available", "model", modelName)
		return nil
	}

	s.logger.Info("Model not found, pulling it", "model", modelName)
	if err := s.pullModel(ctx, modelName); err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	s.logger.Info("Model pulled successfully", "model", modelName)
	return nil
}

// Chat sends the conversation to /api/chat without streaming.
func (s *OllamaService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	reqBody := map[string]interface{}{
		"model":    s.modelName,
		"messages": messages,
		"stream":   false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.baseURL + "/api/chat"
	s.logger.Debug("Making Ollama chat request",
		"url", url,
		"model", s.modelName,
		"message_count", len(messages))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Ollama API returned error",
			"status_code", resp.StatusCode,
			"response_body", body.String())
		return nil, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body.Bytes(), &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if ollamaResp.Message.Content == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return &chat.ChatResponse{Message: ollamaResp.Message.Content}, nil
}

func (s *OllamaService) isModelReady(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, model := range tagsResp.Models {
		if model.Name == modelName {
			return true, nil
		}
	}
	return false, nil
}

func (s *OllamaService) pullModel(ctx context.Context, modelName string) error {
	jsonBody, err := json.Marshal(map[string]interface{}{"name": modelName, "stream": false})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/pull", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// pulling can take minutes
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}
	return nil
}

func (s *OllamaService) waitForReady(ctx context.Context) error {
	for i := 0; i < s.readyRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				s.logger.Info("Ollama service is ready")
				return nil
			}
			s.logger.Debug("Ollama returned non-200 status", "status", resp.StatusCode, "attempt", i+1)
		} else {
			s.logger.Debug("Ollama not ready yet", "error", err, "attempt", i+1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return fmt.Errorf("ollama service did not become ready after %d attempts", s.readyRetries)
}
