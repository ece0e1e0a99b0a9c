package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/internal/services"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKey    = character.Key{PlayerID: "p1", CampaignID: "c1"}
	testLogger = slog.New(slog.DiscardHandler)
)

func setupProcessor(t *testing.T, mutate func(c *character.Character)) (*TurnProcessor, *storage.MockStorage, *services.MockLLMAPI) {
	t.Helper()
	store := storage.NewMockStorage()
	if mutate != nil {
		c := character.New(testKey, "Aria", "Rogue", "Elf", "fantasy", character.ModeNarrative)
		mutate(c)
		require.NoError(t, store.SaveCharacter(context.Background(), c))
	}
	llm := services.NewMockLLMAPI()
	return NewTurnProcessor(store, llm, nil, 0, testLogger), store, llm
}

func loadCharacter(t *testing.T, store *storage.MockStorage) *character.Character {
	t.Helper()
	c, err := store.LoadCharacter(context.Background(), testKey)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		message string
		want    string
		ok      bool
	}{
		{"!status", commandStatus, true},
		{"  !INVENTARIO please", commandInventory, true},
		{"!descansar", commandRest, true},
		{"!resetar", commandReset, true},
		{"!comandos", commandHelp, true},
		{"I shout !status", "", false},
		{"!dance", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := ParseCommand(tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessTurn_Narration(t *testing.T) {
	p, store, llm := setupProcessor(t, func(c *character.Character) { c.Gold = 5 })
	llm.Reply("You pry open the chest.\n```json\n{\"gold\": 45}\n```")

	req := queue.NewTurnRequest(testKey, "I open the chest")
	resp, err := p.ProcessTurn(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, req.RequestID, resp.RequestID)
	assert.Equal(t, "You pry open the chest.", resp.Message)
	assert.True(t, resp.Changed)
	assert.Empty(t, resp.Command)
	assert.Equal(t, 45, loadCharacter(t, store).Gold)

	// raw reply is kept in history
	history, err := store.LoadHistory(context.Background(), testKey, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "I open the chest"}, history[0])
	assert.Equal(t, chat.ChatRoleAgent, history[1].Role)
	assert.Contains(t, history[1].Content, "```json")

	// the prompt ends with the user message and the post prompt
	call := llm.LastCall()
	require.GreaterOrEqual(t, len(call), 3)
	assert.Equal(t, "Aria: I open the chest", call[len(call)-2].Content)
}

func TestProcessTurn_PassiveNoticeReachesPromptAndResponse(t *testing.T) {
	p, store, llm := setupProcessor(t, func(c *character.Character) {
		c.Resources.Health = 50
		c.Status = []string{"Extreme Regeneration"}
	})

	resp, err := p.ProcessTurn(context.Background(), queue.NewTurnRequest(testKey, "I wait"))

	require.NoError(t, err)
	require.Len(t, resp.Notices, 1)
	assert.Contains(t, resp.Notices[0], "+15 HP")
	assert.Equal(t, services.DefaultMockReply+"\n\n"+resp.Notices[0], resp.Message)
	assert.Equal(t, 65, loadCharacter(t, store).Resources.Health)

	var sawNotice bool
	for _, m := range llm.LastCall() {
		if m.Role == chat.ChatRoleSystem && strings.Contains(m.Content, "Passive effects") &&
			strings.Contains(m.Content, "+15 HP") {
			sawNotice = true
		}
	}
	assert.True(t, sawNotice, "passive notice should be in the prompt")
}

func TestProcessTurn_ProviderFailureSkipsReconciliation(t *testing.T) {
	p, store, llm := setupProcessor(t, func(c *character.Character) { c.Gold = 5 })
	llm.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, errors.New("upstream timeout")
	}
	saves := store.SaveCount()

	resp, err := p.ProcessTurn(context.Background(), queue.NewTurnRequest(testKey, "hello"))

	require.NoError(t, err)
	assert.Equal(t, ProviderErrorNotice, resp.Message)
	assert.False(t, resp.Changed)
	assert.Equal(t, saves, store.SaveCount())

	history, err := store.LoadHistory(context.Background(), testKey, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProcessTurn_MissingCharacter(t *testing.T) {
	p, _, llm := setupProcessor(t, nil)

	for _, msg := range []string{"hello", "!status", "!rest"} {
		resp, err := p.ProcessTurn(context.Background(), queue.NewTurnRequest(testKey, msg))
		require.NoError(t, err)
		assert.Equal(t, character.NotFoundNotice, resp.Message, msg)
	}
	assert.Equal(t, 0, llm.CallCount())
}

func TestProcessTurn_Commands(t *testing.T) {
	p, store, llm := setupProcessor(t, func(c *character.Character) {
		c.Resources.Health = 40
		c.Gold = 12
		c.Inventory = []character.Item{{Name: "Rope", Quantity: 1}}
	})
	ctx := context.Background()

	resp, err := p.ProcessTurn(ctx, queue.NewTurnRequest(testKey, "!inventory"))
	require.NoError(t, err)
	assert.Equal(t, commandInventory, resp.Command)
	assert.Contains(t, resp.Message, "Rope")
	assert.Contains(t, resp.Message, "12")

	resp, err = p.ProcessTurn(ctx, queue.NewTurnRequest(testKey, "!status"))
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Aria")

	resp, err = p.ProcessTurn(ctx, queue.NewTurnRequest(testKey, "!descansar"))
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Contains(t, resp.Message, "Recovered 60 HP")
	assert.Equal(t, 100, loadCharacter(t, store).Resources.Health)

	resp, err = p.ProcessTurn(ctx, queue.NewTurnRequest(testKey, "!commands"))
	require.NoError(t, err)
	assert.Equal(t, CommandsHelp, resp.Message)

	assert.Equal(t, 0, llm.CallCount(), "commands never reach the provider")
}

func TestProcessTurn_ResetClearsProgressAndHistory(t *testing.T) {
	p, store, _ := setupProcessor(t, func(c *character.Character) {
		c.Level = 4
		c.Gold = 300
		c.Attributes.Strength = 17
		c.Inventory = []character.Item{{Name: "Sword", Quantity: 1}}
	})
	ctx := context.Background()
	require.NoError(t, store.AppendHistory(ctx, testKey, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "hi"}))

	resp, err := p.ProcessTurn(ctx, queue.NewTurnRequest(testKey, "!reset"))

	require.NoError(t, err)
	assert.Equal(t, commandReset, resp.Command)
	c := loadCharacter(t, store)
	assert.Equal(t, "Aria", c.Name)
	assert.Equal(t, 17, c.Attributes.Strength)
	assert.Equal(t, 0, c.Level)
	assert.Equal(t, 0, c.Gold)
	assert.Empty(t, c.Inventory)

	history, err := store.LoadHistory(ctx, testKey, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestApplyAdmin(t *testing.T) {
	p, store, _ := setupProcessor(t, func(c *character.Character) { c.Level = 1 })
	level := 3
	req := queue.NewAdminRequest(testKey, queue.AdminAction{
		Level:      &level,
		Attributes: map[string]int{"Força": 18, "luck": 12},
	})

	resp, err := p.Process(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Command)
	assert.Contains(t, resp.Message, "Level set to 3")
	assert.Contains(t, resp.Message, "Força")
	assert.Contains(t, resp.Message, "Unknown attributes ignored: luck")

	c := loadCharacter(t, store)
	assert.Equal(t, 3, c.Level)
	assert.Equal(t, 0, c.Experience)
	assert.Equal(t, 18, c.Attributes.Strength)
	assert.Greater(t, c.Resources.MaxHealth, 100)
}

func TestApplyAdmin_RejectsNegativeLevel(t *testing.T) {
	p, store, _ := setupProcessor(t, func(c *character.Character) {})
	level := -2
	saves := store.SaveCount()

	_, err := p.ApplyAdmin(context.Background(), queue.NewAdminRequest(testKey, queue.AdminAction{Level: &level}))

	assert.Error(t, err)
	assert.Equal(t, saves, store.SaveCount())
}

func TestDeleteCharacter_LaterTurnDoesNotRecreate(t *testing.T) {
	p, store, llm := setupProcessor(t, func(c *character.Character) { c.Gold = 5 })
	ctx := context.Background()
	require.NoError(t, store.AppendHistory(ctx, testKey, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "hi"}))

	resp, err := p.Process(ctx, queue.NewDeleteRequest(testKey))
	require.NoError(t, err)
	assert.Equal(t, DeletedNotice, resp.Message)
	assert.Equal(t, "delete", resp.Command)

	c, err := store.LoadCharacter(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, c)
	history, err := store.LoadHistory(ctx, testKey, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	llm.Reply("You find coins.\n```json\n{\"gold\": 50}\n```")
	resp, err = p.Process(ctx, queue.NewTurnRequest(testKey, "I search"))
	require.NoError(t, err)
	assert.Equal(t, character.NotFoundNotice, resp.Message)

	c, err = store.LoadCharacter(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, c)
}
