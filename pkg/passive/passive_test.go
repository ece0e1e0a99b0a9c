package passive

import (
	"strings"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withStatus(hp, maxHP int, status ...string) *character.Character {
	c := character.New(character.Key{PlayerID: "p", CampaignID: "c"}, "Aria", "Druid", "Elf", "", character.ModeNarrative)
	c.Resources.Health = hp
	c.Resources.MaxHealth = maxHP
	c.Status = status
	return c
}

func TestApplyTurnEffects_Regeneration(t *testing.T) {
	reg := DefaultRegistry()
	c := withStatus(50, 100, "Recuperação de Vida Extrema")

	msg := reg.ApplyTurnEffects(c)

	assert.Equal(t, 65, c.Resources.Health)
	assert.Equal(t, "❤️ Extreme Regeneration: +15 HP", msg)
}

func TestApplyTurnEffects_CapsAtMax(t *testing.T) {
	reg := DefaultRegistry()
	c := withStatus(95, 100, "recuperacao de vida extrema")

	msg := reg.ApplyTurnEffects(c)

	assert.Equal(t, 100, c.Resources.Health)
	assert.Equal(t, "❤️ Extreme Regeneration: +5 HP", msg)
}

func TestApplyTurnEffects_NoChange(t *testing.T) {
	reg := DefaultRegistry()

	full := withStatus(100, 100, "Extreme Regeneration")
	assert.Empty(t, reg.ApplyTurnEffects(full))
	assert.Equal(t, 100, full.Resources.Health)

	unknown := withStatus(10, 100, "Blessed")
	assert.Empty(t, reg.ApplyTurnEffects(unknown))
	assert.Equal(t, 10, unknown.Resources.Health)

	assert.Empty(t, reg.ApplyTurnEffects(nil))
}

func TestApplyTurnEffects_DuplicateStatusActsOnce(t *testing.T) {
	reg := DefaultRegistry()
	c := withStatus(10, 100, "Extreme Regeneration", "Recuperação de Vida Extrema")

	reg.ApplyTurnEffects(c)

	assert.Equal(t, 25, c.Resources.Health)
}

func TestLoadYAML(t *testing.T) {
	reg := DefaultRegistry()
	doc := `
effects:
  - name: Poisoned
    aliases: [Envenenado]
    resource: health
    amount: -5
  - name: Meditating
    resource: mana
    amount: 10
    label: Meditation
`
	n, err := reg.LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c := withStatus(3, 100, "envenenado", "Meditating")
	c.Resources.Mana = 45
	c.Resources.MaxMana = 50

	msg := reg.ApplyTurnEffects(c)

	assert.Equal(t, 0, c.Resources.Health)
	assert.Equal(t, 50, c.Resources.Mana)
	assert.Equal(t, "❤️ Poisoned: -3 HP\n🔮 Meditation: +5 mana", msg)
}

func TestLoadYAML_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad resource": "effects:\n  - name: X\n    resource: gold\n    amount: 1\n",
		"zero amount":  "effects:\n  - name: X\n    resource: health\n    amount: 0\n",
		"no name":      "effects:\n  - resource: health\n    amount: 1\n",
		"not yaml":     "effects: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry()
			_, err := reg.LoadYAML(strings.NewReader(doc))
			assert.Error(t, err)
			_, ok := reg.Lookup("X")
			assert.False(t, ok)
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	n, err := NewRegistry().LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
}
