package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 20, cfg.HistoryLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", " OpenAI ")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/game.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HISTORY_LIMIT", "8")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "/tmp/game.db", cfg.SQLitePath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 8, cfg.HistoryLimit)
}

func TestLoad_BadInteger(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("HISTORY_LIMIT", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{LLMProvider: ProviderMock, StorageBackend: BackendRedis, RedisURL: "redis://x:6379"}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"anthropic without key", func(c *Config) { c.LLMProvider = ProviderAnthropic }, true},
		{"anthropic with key", func(c *Config) { c.LLMProvider = ProviderAnthropic; c.AnthropicAPIKey = "k" }, false},
		{"openai without key", func(c *Config) { c.LLMProvider = ProviderOpenAI }, true},
		{"ollama without url", func(c *Config) { c.LLMProvider = ProviderOllama }, true},
		{"ollama with url", func(c *Config) { c.LLMProvider = ProviderOllama; c.OllamaURL = "http://o:11434" }, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "venice" }, true},
		{"redis without url", func(c *Config) { c.RedisURL = "" }, true},
		{"sqlite without path", func(c *Config) { c.StorageBackend = BackendSQLite }, true},
		{"unknown backend", func(c *Config) { c.StorageBackend = "postgres" }, true},
		{"negative history", func(c *Config) { c.HistoryLimit = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("chatty"))
}
