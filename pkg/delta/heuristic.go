package delta

import (
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
)

// PlaceholderItem is added when the narrator mentions receiving something
// without a state block saying what.
const PlaceholderItem = "Mysterious Item"

// Nudge is the coarse change inferred from narrator wording when no state
// block is available. It keeps the game moving; it is not a parser.
type Nudge struct {
	Health       int  `json:"health,omitempty"`
	Gold         int  `json:"gold,omitempty"`
	ReceivedItem bool `json:"received_item,omitempty"`
	UsedItem     bool `json:"used_item,omitempty"`
}

// trigger phrases, English then Portuguese
var (
	lostWords     = []string{"lost", "perdeu"}
	healthWords   = []string{"health", "vida"}
	healedWords   = []string{"healed", "recovered", "curou", "recuperou"}
	gainedWords   = []string{"gained", "ganhou"}
	goldWords     = []string{"gold", "ouro"}
	receivedWords = []string{"received", "recebeu"}
	usedWords     = []string{"used", "usou"}
	itemWords     = []string{"item"}
)

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Heuristic scans text for trigger phrases. It returns nil when nothing
// matched.
func Heuristic(text string) *Nudge {
	t := strings.ToLower(text)
	n := &Nudge{}

	lost := containsAny(t, lostWords)
	if lost && containsAny(t, healthWords) {
		n.Health--
	}
	if containsAny(t, healedWords) {
		n.Health++
	}
	if containsAny(t, goldWords) {
		if containsAny(t, gainedWords) {
			n.Gold += 10
		}
		if lost {
			n.Gold -= 10
		}
	}
	n.ReceivedItem = containsAny(t, receivedWords)
	n.UsedItem = containsAny(t, usedWords) && containsAny(t, itemWords)

	if *n == (Nudge{}) {
		return nil
	}
	return n
}

// ApplyTo applies the nudge to a character, keeping every pool in range.
// It returns whether anything changed.
func (n *Nudge) ApplyTo(c *character.Character) bool {
	if n == nil || c == nil {
		return false
	}
	before := c.Clone()

	r := &c.Resources
	r.Health = min(max(r.Health+n.Health, 0), r.MaxHealth)
	c.Gold = max(c.Gold+n.Gold, 0)

	if n.ReceivedItem {
		if i := character.FindItem(c.Inventory, PlaceholderItem); i >= 0 {
			c.Inventory[i].Quantity++
		} else {
			c.Inventory = append(c.Inventory, character.Item{Name: PlaceholderItem, Quantity: 1})
		}
	}
	if n.UsedItem && len(c.Inventory) > 0 {
		c.Inventory[0].Quantity--
		if c.Inventory[0].Quantity <= 0 {
			c.Inventory = c.Inventory[1:]
		}
	}

	return r.Health != before.Resources.Health ||
		c.Gold != before.Gold ||
		n.ReceivedItem ||
		(n.UsedItem && len(before.Inventory) > 0)
}
