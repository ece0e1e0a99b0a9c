// Package sheet renders read-only views of a character: the text shown for
// the status and inventory commands, and a d20 combat actor with inventory
// bonuses applied. None of these views is ever persisted.
package sheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/buffs"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/rules"
	"github.com/jwebster45206/d20"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaseAC is the armour class of an unarmoured character before dexterity.
const BaseAC = 10

// Label title-cases a canonical attribute key for display.
func Label(attr string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(attr, "_", " "))
}

// StatusText is the character sheet shown by the status command.
func StatusText(c *character.Character) string {
	if c == nil {
		return character.NotFoundNotice
	}
	b := buffs.Derive(c.Inventory, c.Class)
	effective := b.Stats(c.Attributes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 **%s** (level %d %s", c.Name, c.Level, c.Class)
	if c.Race != "" {
		fmt.Fprintf(&sb, ", %s", c.Race)
	}
	sb.WriteString(")\n")

	r := c.Resources
	fmt.Fprintf(&sb, "❤️ HP: %d/%d", r.Health, r.MaxHealth+b.ExtraHealthMax)
	if b.ExtraHealthMax != 0 {
		fmt.Fprintf(&sb, " (%+d from items)", b.ExtraHealthMax)
	}
	sb.WriteString("\n")

	if actor, err := CombatActor(c); err == nil {
		fmt.Fprintf(&sb, "🛡️ AC: %d\n", actor.AC())
		if actor.IsKnockedOut() {
			sb.WriteString("💀 Knocked out\n")
		}
	}

	if c.RequiresSlots() {
		if len(c.SpellSlots) > 0 {
			parts := make([]string, 0, len(c.SpellSlots))
			for _, circle := range c.SpellSlots.Circles() {
				s := c.SpellSlots[circle]
				parts = append(parts, fmt.Sprintf("circle %s %d/%d", circle, s.Remaining(), s.Total))
			}
			fmt.Fprintf(&sb, "✨ Spell slots: %s\n", strings.Join(parts, ", "))
		}
	} else if r.MaxMana > 0 || b.ExtraManaMax > 0 {
		fmt.Fprintf(&sb, "🔮 Mana: %d/%d", r.Mana, r.MaxMana+b.ExtraManaMax)
		if b.ExtraManaMax != 0 {
			fmt.Fprintf(&sb, " (%+d from items)", b.ExtraManaMax)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "⭐ XP: %d/%d (total %d)\n", c.Experience, rules.XPToNextLevel(c.Level), c.TotalExperience)
	fmt.Fprintf(&sb, "💰 Gold: %d\n", c.Gold)

	sb.WriteString("\n**Attributes**\n")
	for _, attr := range character.AttributeNames {
		base, _ := c.Attributes.Get(attr)
		eff, _ := effective.Get(attr)
		fmt.Fprintf(&sb, "- %s: %d (%+d)", Label(attr), eff, character.Modifier(eff))
		if bonus := b.Attributes[attr]; bonus != 0 {
			fmt.Fprintf(&sb, " [base %d, %+d from items]", base, bonus)
		}
		sb.WriteString("\n")
	}

	if len(c.Status) > 0 {
		fmt.Fprintf(&sb, "\n🌀 Status: %s\n", strings.Join(c.Status, ", "))
	}
	if len(c.Spells) > 0 {
		names := make([]string, 0, len(c.Spells))
		for _, s := range c.Spells {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&sb, "📖 Spells: %s\n", strings.Join(names, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// InventoryText lists the inventory with each item's bonuses. Bonuses the
// provider never wrote are inferred for display.
func InventoryText(c *character.Character) string {
	if c == nil {
		return character.NotFoundNotice
	}
	if len(c.Inventory) == 0 {
		return fmt.Sprintf("🎒 Your inventory is empty.\n💰 Gold: %d", c.Gold)
	}

	var sb strings.Builder
	sb.WriteString("🎒 **Inventory**\n")
	for _, item := range c.Inventory {
		fmt.Fprintf(&sb, "- %s x%d", item.Name, item.Quantity)
		if desc := bonusText(item, c.Class); desc != "" {
			fmt.Fprintf(&sb, " (%s)", desc)
		}
		if item.Description != "" {
			fmt.Fprintf(&sb, ": %s", item.Description)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "💰 Gold: %d", c.Gold)
	return sb.String()
}

func bonusText(item character.Item, class string) string {
	b := buffs.Derive([]character.Item{item}, class)
	var parts []string
	attrs := make([]string, 0, len(b.Attributes))
	for attr := range b.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrOrder(attrs[i]) < attrOrder(attrs[j]) })
	for _, attr := range attrs {
		parts = append(parts, fmt.Sprintf("%+d %s", b.Attributes[attr], Label(attr)))
	}
	if b.ExtraHealthMax != 0 {
		parts = append(parts, fmt.Sprintf("%+d max HP", b.ExtraHealthMax))
	}
	if b.ExtraManaMax != 0 {
		parts = append(parts, fmt.Sprintf("%+d max mana", b.ExtraManaMax))
	}
	return strings.Join(parts, ", ")
}

func attrOrder(attr string) int {
	for i, a := range character.AttributeNames {
		if a == attr {
			return i
		}
	}
	return len(character.AttributeNames)
}

// CombatActor builds a d20 actor from the character's base stats plus
// inventory bonuses. AC is BaseAC plus the effective dexterity modifier.
func CombatActor(c *character.Character) (*d20.Actor, error) {
	if c == nil {
		return nil, fmt.Errorf("character cannot be nil")
	}
	b := buffs.Derive(c.Inventory, c.Class)
	stats := b.Stats(c.Attributes)

	maxHP := c.Resources.MaxHealth + b.ExtraHealthMax
	if maxHP < 1 {
		maxHP = 1
	}

	actor, err := d20.NewActor(c.Key.String()).
		WithHP(maxHP).
		WithAC(BaseAC + character.Modifier(stats.Dexterity)).
		WithAttributes(stats.ToAttributes()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	// a downed character keeps 0 HP
	if hp := max(0, min(c.Resources.Health, maxHP)); hp != maxHP {
		if err := actor.SetHP(hp); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}
