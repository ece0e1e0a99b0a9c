package sheet

import (
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCharacter() *character.Character {
	c := character.New(character.Key{PlayerID: "p1", CampaignID: "c1"}, "Aria", "Rogue", "Elf", "fantasy", character.ModeNarrative)
	c.Resources = character.Resources{Health: 40, MaxHealth: 100, Mana: 10, MaxMana: 20}
	c.Attributes.Dexterity = 14
	c.Gold = 33
	return c
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Strength", Label("strength"))
	assert.Equal(t, "Max Health", Label("max_health"))
}

func TestStatusText(t *testing.T) {
	c := testCharacter()
	c.Inventory = []character.Item{
		{Name: "Elven Dagger", Quantity: 1},
		{Name: "Belt of Vigor", Quantity: 1, Bonuses: map[string]character.BonusValue{"vida_maxima": "10"}},
	}
	c.Status = []string{"Poisoned"}

	text := StatusText(c)

	assert.Contains(t, text, "**Aria** (level 0 Rogue, Elf)")
	assert.Contains(t, text, "HP: 40/110 (+10 from items)")
	assert.Contains(t, text, "AC: 12\n")
	assert.NotContains(t, text, "Knocked out")
	assert.Contains(t, text, "Mana: 10/20")
	assert.Contains(t, text, "XP: 0/100 (total 0)")
	assert.Contains(t, text, "Gold: 33")
	assert.Contains(t, text, "- Dexterity: 15 (+2) [base 14, +1 from items]")
	assert.Contains(t, text, "- Strength: 10 (+0)\n")
	assert.Contains(t, text, "Status: Poisoned")
	assert.Equal(t, 14, c.Attributes.Dexterity, "sheet must not write buffs back")
}

func TestStatusText_StrictShowsSlots(t *testing.T) {
	c := testCharacter()
	c.Mode = character.ModeStrict
	c.Resources.MaxMana = 0
	c.Resources.Mana = 0
	c.SpellSlots = character.SlotPool{"1": {Total: 4, Used: 1}, "2": {Total: 2}}

	text := StatusText(c)

	assert.Contains(t, text, "Spell slots: circle 1 3/4, circle 2 2/2")
	assert.NotContains(t, text, "Mana")
}

func TestStatusText_Nil(t *testing.T) {
	assert.Equal(t, character.NotFoundNotice, StatusText(nil))
	assert.Equal(t, character.NotFoundNotice, InventoryText(nil))
}

func TestInventoryText(t *testing.T) {
	c := testCharacter()
	c.Inventory = []character.Item{
		{Name: "Longsword", Quantity: 1},
		{Name: "Iron Ring", Quantity: 1, Description: "old and scratched", Bonuses: map[string]character.BonusValue{"carisma": "+1"}},
		{Name: "Torch", Quantity: 3},
	}

	text := InventoryText(c)

	assert.Contains(t, text, "- Longsword x1 (+1 Strength)\n")
	assert.Contains(t, text, "- Iron Ring x1 (+1 Charisma): old and scratched\n")
	assert.Contains(t, text, "- Torch x3\n")
	assert.Contains(t, text, "Gold: 33")
	assert.Nil(t, c.Inventory[0].Bonuses, "inferred bonuses are display only")
}

func TestInventoryText_Empty(t *testing.T) {
	c := testCharacter()
	assert.Equal(t, "🎒 Your inventory is empty.\n💰 Gold: 33", InventoryText(c))
}

func TestCombatActor(t *testing.T) {
	c := testCharacter()
	c.Inventory = []character.Item{
		{Name: "Shortbow", Quantity: 1},
		{Name: "Amulet", Quantity: 1, Bonuses: map[string]character.BonusValue{"max health": "20"}},
	}

	actor, err := CombatActor(c)
	require.NoError(t, err)

	assert.Equal(t, 120, actor.MaxHP())
	assert.Equal(t, 40, actor.HP())
	assert.Equal(t, BaseAC+2, actor.AC())
	dex, ok := actor.Attribute("dexterity")
	require.True(t, ok)
	assert.Equal(t, 15, dex)
	assert.Equal(t, 14, c.Attributes.Dexterity)
	assert.Equal(t, 100, c.Resources.MaxHealth)
}

func TestCombatActor_FullHealth(t *testing.T) {
	c := testCharacter()
	c.Resources.Health = 100

	actor, err := CombatActor(c)
	require.NoError(t, err)
	assert.Equal(t, 100, actor.HP())
	assert.Equal(t, 100, actor.MaxHP())
}

func TestCombatActor_Downed(t *testing.T) {
	c := testCharacter()
	c.Resources.Health = 0

	actor, err := CombatActor(c)
	require.NoError(t, err)
	assert.Equal(t, 0, actor.HP())
	assert.Equal(t, 100, actor.MaxHP())
	assert.True(t, actor.IsKnockedOut())

	assert.Contains(t, StatusText(c), "Knocked out")
}

func TestCombatActor_HealthAboveItemAdjustedMax(t *testing.T) {
	c := testCharacter()
	c.Resources.Health = 100
	c.Inventory = []character.Item{{Name: "Cursed Amulet", Quantity: 1, Bonuses: map[string]character.BonusValue{"max health": "-20"}}}

	actor, err := CombatActor(c)
	require.NoError(t, err)
	assert.Equal(t, 80, actor.MaxHP())
	assert.Equal(t, 80, actor.HP())
}

func TestCombatActor_Nil(t *testing.T) {
	_, err := CombatActor(nil)
	assert.Error(t, err)
}
