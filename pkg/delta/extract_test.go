package delta

import (
	"log/slog"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.DiscardHandler)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantDelta bool
		wantNudge bool
		fenced    bool
		stripped  string
	}{
		{
			name:      "json fence",
			text:      "The goblin drops a coin.\n```json\n{\"gold\": 11}\n```",
			wantDelta: true,
			fenced:    true,
			stripped:  "The goblin drops a coin.\n",
		},
		{
			name:      "untagged fence with object body",
			text:      "Story.\n```\n{\"gold\": 11}\n```",
			wantDelta: true,
			fenced:    true,
			stripped:  "Story.\n",
		},
		{
			name:     "untagged prose fence is story",
			text:     "The bard sings:\n```\nOh the road\n```",
			stripped: "The bard sings:\n```\nOh the road\n```",
		},
		{
			name:     "malformed block leaves state alone",
			text:     "You lost some health.\n```json\n{\"health\": 5\n```",
			fenced:   true,
			stripped: "You lost some health.\n",
		},
		{
			name:      "no block uses heuristic",
			text:      "You gained 10 gold.",
			wantNudge: true,
			stripped:  "You gained 10 gold.",
		},
		{
			name:     "nothing at all",
			text:     "The wind howls.",
			stripped: "The wind howls.",
		},
		{
			name:      "unterminated json fence",
			text:      "You rest.\n```json\n{\"health\": 20}",
			wantDelta: true,
			fenced:    true,
			stripped:  "You rest.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.text, testLogger)
			assert.Equal(t, tt.wantDelta, res.Delta != nil, "delta")
			assert.Equal(t, tt.wantNudge, res.Nudge != nil, "nudge")
			assert.Equal(t, tt.fenced, res.Fenced, "fenced")
			assert.Equal(t, tt.stripped, res.Span.Strip(tt.text))
			if tt.fenced && !tt.wantDelta {
				assert.Error(t, res.Err)
			}
		})
	}
}

func TestExtract_FirstBlockWins(t *testing.T) {
	text := "A\n```json\n{\"gold\": 1}\n```\nB\n```json\n{\"gold\": 2}\n```"
	res := Extract(text, testLogger)
	require.NotNil(t, res.Delta)
	assert.Equal(t, 1, *res.Delta.Gold)
	assert.Equal(t, "A\n\nB\n```json\n{\"gold\": 2}\n```", res.Span.Strip(text))
}

func TestExtract_MalformedBlockSkipsKeywords(t *testing.T) {
	text := "You lost some health and lost gold.\n```json\n{\"gold\": 99, \"health\": 1\n```"
	res := Extract(text, testLogger)
	assert.True(t, res.Fenced)
	assert.Nil(t, res.Delta)
	assert.Nil(t, res.Nudge)
	assert.Error(t, res.Err)
}

func TestExtract_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() { Extract("```json\n{bad\n```", nil) })
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		text string
		want *Nudge
	}{
		{"You lost a little health.", &Nudge{Health: -1}},
		{"Você perdeu vida na queda.", &Nudge{Health: -1}},
		{"The cleric healed you.", &Nudge{Health: 1}},
		{"Você recuperou o fôlego.", &Nudge{Health: 1}},
		{"You gained some gold.", &Nudge{Gold: 10}},
		{"Você perdeu ouro no jogo.", &Nudge{Gold: -10}},
		{"You received a letter.", &Nudge{ReceivedItem: true}},
		{"You used the item.", &Nudge{UsedItem: true}},
		{"The night is quiet.", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Heuristic(tt.text), tt.text)
	}
}

func TestNudge_ApplyTo(t *testing.T) {
	newChar := func() *character.Character {
		c := character.New(character.Key{PlayerID: "p", CampaignID: "c"}, "A", "Rogue", "", "", character.ModeNarrative)
		c.Resources.Health = 1
		c.Gold = 5
		c.Inventory = []character.Item{{Name: "Potion", Quantity: 1}, {Name: "Rope", Quantity: 1}}
		return c
	}

	t.Run("health floors at zero and gold floors at zero", func(t *testing.T) {
		c := newChar()
		changed := (&Nudge{Health: -5, Gold: -10}).ApplyTo(c)
		assert.True(t, changed)
		assert.Equal(t, 0, c.Resources.Health)
		assert.Equal(t, 0, c.Gold)
	})

	t.Run("healing caps at max", func(t *testing.T) {
		c := newChar()
		c.Resources.Health = c.Resources.MaxHealth
		changed := (&Nudge{Health: 1}).ApplyTo(c)
		assert.False(t, changed)
		assert.Equal(t, c.Resources.MaxHealth, c.Resources.Health)
	})

	t.Run("received item adds placeholder", func(t *testing.T) {
		c := newChar()
		(&Nudge{ReceivedItem: true}).ApplyTo(c)
		(&Nudge{ReceivedItem: true}).ApplyTo(c)
		i := character.FindItem(c.Inventory, PlaceholderItem)
		require.GreaterOrEqual(t, i, 0)
		assert.Equal(t, 2, c.Inventory[i].Quantity)
	})

	t.Run("used item removes first item at zero", func(t *testing.T) {
		c := newChar()
		assert.True(t, (&Nudge{UsedItem: true}).ApplyTo(c))
		require.Len(t, c.Inventory, 1)
		assert.Equal(t, "Rope", c.Inventory[0].Name)
	})

	t.Run("nil nudge is a no-op", func(t *testing.T) {
		var n *Nudge
		assert.False(t, n.ApplyTo(newChar()))
	})
}
