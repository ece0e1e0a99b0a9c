package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/guialv3s/InfinityAIRPG/internal/storage/migrations"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// SQLiteStorage is a single-node Storage backed by one SQLite file.
type SQLiteStorage struct {
	db           *sql.DB
	logger       *slog.Logger
	historyLimit int
}

// Ensure SQLiteStorage implements Storage interface
var _ storage.Storage = (*SQLiteStorage)(nil)

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("SQLite storage opened", "path", path)
	return &SQLiteStorage{
		db:           db,
		logger:       logger,
		historyLimit: storage.DefaultHistoryLimit,
	}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) SaveCharacter(ctx context.Context, c *character.Character) error {
	if c == nil {
		return fmt.Errorf("character cannot be nil")
	}
	if err := c.Key.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO characters (player_id, campaign_id, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (player_id, campaign_id) DO UPDATE SET
    data = excluded.data,
    updated_at = excluded.updated_at`,
		c.Key.PlayerID, c.Key.CampaignID, string(data),
		c.CreatedAt.Format(timeFormat), c.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		s.logger.Error("Failed to save character", "character", c.Key.String(), "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadCharacter(ctx context.Context, key character.Key) (*character.Character, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM characters WHERE player_id = ? AND campaign_id = ?",
		key.PlayerID, key.CampaignID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	var c character.Character
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		s.logger.Error("Failed to unmarshal character", "character", key.String(), "error", err)
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	c.Key = key
	return &c, nil
}

func (s *SQLiteStorage) DeleteCharacter(ctx context.Context, key character.Key) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM characters WHERE player_id = ? AND campaign_id = ?",
		key.PlayerID, key.CampaignID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

// AppendHistory inserts the messages and trims the oldest rows beyond the
// history limit in the same transaction.
func (s *SQLiteStorage) AppendHistory(ctx context.Context, key character.Key, msgs ...chat.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeFormat)
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO history (player_id, campaign_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
			key.PlayerID, key.CampaignID, m.Role, m.Content, now,
		); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM history
WHERE player_id = ? AND campaign_id = ? AND id NOT IN (
    SELECT id FROM history
    WHERE player_id = ? AND campaign_id = ?
    ORDER BY id DESC LIMIT ?
)`,
		key.PlayerID, key.CampaignID, key.PlayerID, key.CampaignID, s.historyLimit,
	); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStorage) LoadHistory(ctx context.Context, key character.Key, limit int) ([]chat.ChatMessage, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT role, content FROM (
    SELECT id, role, content FROM history
    WHERE player_id = ? AND campaign_id = ?
    ORDER BY id DESC LIMIT ?
) ORDER BY id ASC`,
		key.PlayerID, key.CampaignID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	msgs := make([]chat.ChatMessage, 0)
	for rows.Next() {
		var m chat.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStorage) DeleteHistory(ctx context.Context, key character.Key) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM history WHERE player_id = ? AND campaign_id = ?",
		key.PlayerID, key.CampaignID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}
