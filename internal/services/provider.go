package services

import (
	"fmt"
	"log/slog"

	"github.com/guialv3s/InfinityAIRPG/internal/config"
)

// NewLLMService builds the narrative provider selected by cfg.LLMProvider.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, logger), nil
	case config.ProviderOllama:
		return NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger), nil
	case config.ProviderMock:
		return NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.LLMProvider)
	}
}
