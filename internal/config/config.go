package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Supported LLM providers and storage backends.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"

	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port        string     `env:"PORT"        envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string     `env:"LOG_LEVEL"   envDefault:"info"`
	LogLevel    slog.Level // parsed from LogLevelRaw

	LLMProvider     string `env:"LLM_PROVIDER"      envDefault:"anthropic"`
	ModelName       string `env:"MODEL_NAME"        envDefault:"claude-3-5-haiku-latest"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OllamaURL       string `env:"OLLAMA_URL"        envDefault:"http://localhost:11434"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisURL       string `env:"REDIS_URL"       envDefault:"redis://localhost:6379"`
	SQLitePath     string `env:"SQLITE_PATH"     envDefault:"data/infinity.db"`

	StatusEffectsFile string `env:"STATUS_EFFECTS_FILE"`
	HistoryLimit      int    `env:"HISTORY_LIMIT" envDefault:"20"`
	WorkerID          string `env:"WORKER_ID"`

	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks provider credentials and backend settings.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required when LLM_PROVIDER=ollama")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (supported: anthropic, openai, ollama, mock)", c.LLMProvider)
	}

	switch c.StorageBackend {
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=redis")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (supported: redis, sqlite)", c.StorageBackend)
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must be non-negative, got %d", c.HistoryLimit)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
