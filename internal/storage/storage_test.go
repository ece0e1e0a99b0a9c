package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.DiscardHandler)

func setupRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStorage("redis://"+mr.Addr(), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })
	return rs, mr
}

func setupSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "characters.db"), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends runs fn against every Storage implementation.
func backends(t *testing.T, fn func(t *testing.T, s storage.Storage)) {
	t.Run("redis", func(t *testing.T) {
		rs, _ := setupRedis(t)
		fn(t, rs)
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, setupSQLite(t))
	})
	t.Run("mock", func(t *testing.T) {
		fn(t, storage.NewMockStorage())
	})
}

func sampleCharacter() *character.Character {
	c := character.New(character.Key{PlayerID: "p1", CampaignID: "c1"}, "Aria", "Wizard", "Elf", "fantasy", character.ModeStrict)
	c.Level = 3
	c.TotalExperience = 420
	c.SpellSlots = character.SlotPool{"1": {Total: 4, Used: 1}, "2": {Total: 2}}
	c.Inventory = []character.Item{
		{Name: "Iron Ring", Quantity: 1, Bonuses: map[string]character.BonusValue{"charisma": "1"}},
		{Name: "Torch", Quantity: 3},
	}
	c.Status = []string{"Blessed"}
	return c
}

func TestStorage_CharacterRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		c := sampleCharacter()

		require.NoError(t, s.Ping(ctx))
		require.NoError(t, s.SaveCharacter(ctx, c))

		loaded, err := s.LoadCharacter(ctx, c.Key)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, c.Key, loaded.Key)
		assert.Equal(t, 3, loaded.Level)
		assert.Equal(t, 420, loaded.TotalExperience)
		assert.Equal(t, c.SpellSlots, loaded.SpellSlots)
		assert.Equal(t, character.BonusValue("1"), loaded.Inventory[0].Bonuses["charisma"])
		assert.Nil(t, loaded.Inventory[1].Bonuses)
		assert.Equal(t, []string{"Blessed"}, loaded.Status)
	})
}

func TestStorage_SaveOverwrites(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		c := sampleCharacter()
		require.NoError(t, s.SaveCharacter(ctx, c))

		c.Gold = 99
		require.NoError(t, s.SaveCharacter(ctx, c))

		loaded, err := s.LoadCharacter(ctx, c.Key)
		require.NoError(t, err)
		assert.Equal(t, 99, loaded.Gold)
	})
}

func TestStorage_NotFoundReturnsNil(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		loaded, err := s.LoadCharacter(context.Background(), character.Key{PlayerID: "nobody", CampaignID: "none"})
		assert.NoError(t, err)
		assert.Nil(t, loaded)
	})
}

func TestStorage_KeysAreIsolated(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		a := sampleCharacter()
		b := sampleCharacter()
		b.Key.CampaignID = "c2"
		b.Name = "Bryn"
		require.NoError(t, s.SaveCharacter(ctx, a))
		require.NoError(t, s.SaveCharacter(ctx, b))

		require.NoError(t, s.DeleteCharacter(ctx, a.Key))

		gone, err := s.LoadCharacter(ctx, a.Key)
		require.NoError(t, err)
		assert.Nil(t, gone)
		kept, err := s.LoadCharacter(ctx, b.Key)
		require.NoError(t, err)
		require.NotNil(t, kept)
		assert.Equal(t, "Bryn", kept.Name)
	})
}

func TestStorage_History(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		key := character.Key{PlayerID: "p1", CampaignID: "c1"}

		require.NoError(t, s.AppendHistory(ctx, key,
			chat.ChatMessage{Role: chat.ChatRoleUser, Content: "hello"},
			chat.ChatMessage{Role: chat.ChatRoleAgent, Content: "welcome"},
		))
		require.NoError(t, s.AppendHistory(ctx, key, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "look"}))

		all, err := s.LoadHistory(ctx, key, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "hello", all[0].Content)
		assert.Equal(t, "look", all[2].Content)

		last, err := s.LoadHistory(ctx, key, 2)
		require.NoError(t, err)
		require.Len(t, last, 2)
		assert.Equal(t, "welcome", last[0].Content)

		require.NoError(t, s.DeleteHistory(ctx, key))
		empty, err := s.LoadHistory(ctx, key, 0)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestStorage_HistoryIsCapped(t *testing.T) {
	backends(t, func(t *testing.T, s storage.Storage) {
		ctx := context.Background()
		key := character.Key{PlayerID: "p1", CampaignID: "c1"}

		for i := 0; i < storage.DefaultHistoryLimit+5; i++ {
			require.NoError(t, s.AppendHistory(ctx, key, chat.ChatMessage{Role: chat.ChatRoleUser, Content: fmt.Sprintf("m%d", i)}))
		}

		all, err := s.LoadHistory(ctx, key, 0)
		require.NoError(t, err)
		require.Len(t, all, storage.DefaultHistoryLimit)
		assert.Equal(t, "m5", all[0].Content)
	})
}

func TestRedisStorage_KeyLayout(t *testing.T) {
	rs, mr := setupRedis(t)
	c := sampleCharacter()
	require.NoError(t, rs.SaveCharacter(context.Background(), c))

	assert.True(t, mr.Exists("character:p1:c1"))
	assert.Zero(t, mr.TTL("character:p1:c1"), "characters must not expire")
}

func TestRedisStorage_BareAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	rs, err := NewRedisStorage(mr.Addr(), testLogger)
	require.NoError(t, err)
	defer rs.Close()
	assert.NoError(t, rs.Ping(context.Background()))
}

func TestRedisStorage_PingFailsWhenDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rs, err := NewRedisStorage(mr.Addr(), testLogger)
	require.NoError(t, err)
	defer rs.Close()

	mr.Close()
	assert.Error(t, rs.Ping(context.Background()))
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("", testLogger)
	assert.Error(t, err)
}

func TestOpenSQLite_MigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "characters.db")
	first, err := OpenSQLite(path, testLogger)
	require.NoError(t, err)
	require.NoError(t, first.SaveCharacter(context.Background(), sampleCharacter()))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path, testLogger)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)

	loaded, err := second.LoadCharacter(context.Background(), character.Key{PlayerID: "p1", CampaignID: "c1"})
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE t (id INT);", "CREATE TABLE t (id INT);"},
		{"up only", "-- +migrate Up\nCREATE TABLE t (id INT);", "\nCREATE TABLE t (id INT);"},
		{"up and down", "-- +migrate Up\nCREATE TABLE t;\n-- +migrate Down\nDROP TABLE t;", "\nCREATE TABLE t;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUpMigration(tt.content))
		})
	}
}
