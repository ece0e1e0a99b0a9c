package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// PromptState is the reduced character sheet shown to the narrator.
// Experience is the lifetime total so the narrator reports totals back.
type PromptState struct {
	Name       string             `json:"name"`
	Class      string             `json:"class"`
	Race       string             `json:"race,omitempty"`
	Level      int                `json:"level"`
	Experience int                `json:"experience"`
	Health     int                `json:"health"`
	MaxHealth  int                `json:"max_health"`
	Mana       *int               `json:"mana,omitempty"`
	MaxMana    *int               `json:"max_mana,omitempty"`
	SpellSlots character.SlotPool `json:"spell_slots,omitempty"`
	Gold       int                `json:"gold"`
	Items      []character.Item   `json:"items"`
	Spells     []character.Spell  `json:"spells,omitempty"`
	Status     []string           `json:"status,omitempty"`
	Attributes character.Stats    `json:"attributes"`
}

// ToPromptState reduces a character to what the narrator needs. Mana is
// omitted for characters that track slots.
func ToPromptState(c *character.Character) *PromptState {
	ps := &PromptState{
		Name:       c.Name,
		Class:      c.Class,
		Race:       c.Race,
		Level:      c.Level,
		Experience: c.TotalExperience,
		Health:     c.Resources.Health,
		MaxHealth:  c.Resources.MaxHealth,
		Gold:       c.Gold,
		Items:      c.Inventory,
		Spells:     c.Spells,
		Status:     c.Status,
		Attributes: c.Attributes,
	}
	if ps.Items == nil {
		ps.Items = []character.Item{}
	}
	if c.RequiresSlots() {
		ps.SpellSlots = c.SpellSlots
	} else {
		mana, maxMana := c.Resources.Mana, c.Resources.MaxMana
		ps.Mana = &mana
		ps.MaxMana = &maxMana
	}
	return ps
}

// GetStatePrompt renders the character sheet as a system message.
func GetStatePrompt(c *character.Character) (chat.ChatMessage, error) {
	if c == nil {
		return chat.ChatMessage{}, fmt.Errorf("character is nil")
	}
	data, err := json.MarshalIndent(ToPromptState(c), "", "  ")
	if err != nil {
		return chat.ChatMessage{}, err
	}
	return chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf(StateBlockPrompt, data),
	}, nil
}
