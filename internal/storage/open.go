package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/guialv3s/InfinityAIRPG/internal/config"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
)

// Open returns the backend selected by cfg.StorageBackend, ready to use.
// Redis is waited for; the SQLite file and its directory are created.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs, err := NewRedisStorage(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return OpenSQLite(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.StorageBackend)
	}
}
