package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"

	DefaultOpenAITemperature = 0.8
)

// OpenAIService implements LLMService with the chat completions API.
type OpenAIService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type OpenAIChatRequest struct {
	Model       string             `json:"model"`
	Messages    []chat.ChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type OpenAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewOpenAIService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the client at another compatible endpoint.
func (o *OpenAIService) WithBaseURL(baseURL string) *OpenAIService {
	if baseURL != "" {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
	return o
}

func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (o *OpenAIService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	reqBody, err := json.Marshal(OpenAIChatRequest{
		Model:       o.modelName,
		Messages:    messages,
		Temperature: DefaultOpenAITemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var openAIResp OpenAIChatResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if openAIResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := openAIResp.Choices[0].Message
	if choice.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", choice.Refusal)
	}
	if choice.Content == "" {
		return nil, fmt.Errorf("empty response from provider")
	}

	o.logger.Debug("OpenAI response received",
		"model", openAIResp.Model,
		"prompt_tokens", openAIResp.Usage.PromptTokens,
		"completion_tokens", openAIResp.Usage.CompletionTokens)

	return &chat.ChatResponse{Message: choice.Content}, nil
}
