package ledger

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/delta"
)

// ApplyNudge applies a keyword fallback to a character and clamps the
// result. It reports whether anything changed.
func ApplyNudge(c *character.Character, n *delta.Nudge, logger *slog.Logger) bool {
	if c == nil || n == nil {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}
	changed := n.ApplyTo(c)
	if fixes := c.Clamp(); len(fixes) > 0 {
		logger.Debug("Clamped out of range values", "character", c.Key.String(), "fixes", fixes)
	}
	return changed
}

// PerformRest returns a fully rested copy of c and a notice of what was
// recovered. Health and mana return to their maxima and every spell slot
// is marked unused. c itself is not modified.
func PerformRest(c *character.Character) (*character.Character, string) {
	if c == nil {
		return nil, character.NotFoundNotice
	}
	rested := c.Clone()
	r := &rested.Resources

	hpRecovered := max(r.MaxHealth-r.Health, 0)
	manaRecovered := max(r.MaxMana-r.Mana, 0)
	r.Health = r.MaxHealth
	r.Mana = r.MaxMana

	for circle, slot := range rested.SpellSlots {
		slot.Used = 0
		rested.SpellSlots[circle] = slot
	}

	var sb strings.Builder
	sb.WriteString("💤 **Long rest complete!**\n")
	fmt.Fprintf(&sb, "❤️ Recovered %d HP (now %d/%d).", hpRecovered, r.Health, r.MaxHealth)
	if r.MaxMana > 0 {
		fmt.Fprintf(&sb, " 🔮 Recovered %d mana (now %d/%d).", manaRecovered, r.Mana, r.MaxMana)
	}
	if len(rested.SpellSlots) > 0 {
		sb.WriteString(" All spell slots restored.")
	}
	return rested, sb.String()
}

// Reset returns a fresh character that keeps c's identity, mode and base
// attributes but none of its progress, pools, inventory, spells or
// conditions.
func Reset(c *character.Character) *character.Character {
	if c == nil {
		return nil
	}
	fresh := character.New(c.Key, c.Name, c.Class, c.Race, c.Theme, c.Mode)
	fresh.Attributes = c.Attributes
	fresh.CreatedAt = c.CreatedAt
	if fresh.RequiresSlots() {
		fresh.Resources.Mana = 0
		fresh.Resources.MaxMana = 0
		Reseed(fresh)
	}
	return fresh
}

// Normalize repairs a character loaded from storage: rules-strict
// characters carry no mana and get any missing spell circles back, and
// every pool is clamped. It returns a description of each fix.
func Normalize(c *character.Character) []string {
	if c == nil {
		return nil
	}
	var fixes []string
	if c.RequiresSlots() {
		if c.Resources.Mana != 0 || c.Resources.MaxMana != 0 {
			c.Resources.Mana = 0
			c.Resources.MaxMana = 0
			fixes = append(fixes, "mana removed")
		}
		for _, circle := range Reseed(c) {
			fixes = append(fixes, "slots["+circle+"] reseeded")
		}
	}
	return append(fixes, c.Clamp()...)
}
