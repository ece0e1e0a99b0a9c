// Package leveling turns experience into levels and grows resource pools.
package leveling

import (
	"fmt"
	"math"
	"sort"

	"github.com/guialv3s/InfinityAIRPG/pkg/buffs"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/rules"
)

// growPercent is the per-level growth of both maximum pools.
const growPercent = 10

// MaxLevel is the highest level a character can reach.
const MaxLevel = 100

// ceilPercent returns ceil(v * pct / 100) for non-negative v, saturating at
// math.MaxInt.
func ceilPercent(v, pct int) int {
	if pct > 0 && v > (math.MaxInt-99)/pct {
		return math.MaxInt
	}
	return (v*pct + 99) / 100
}

// addCapped returns min(a+b, limit) for non-negative b without overflowing.
func addCapped(a, b, limit int) int {
	if a >= limit || b >= limit-a {
		return limit
	}
	return a + b
}

// Growth applies one level's worth of pool growth: each maximum grows by
// 10% rounded up and each current value gains 10% of its new maximum,
// rounded up, without passing the maximum.
func Growth(r *character.Resources) {
	r.MaxHealth = ceilPercent(r.MaxHealth, 100+growPercent)
	r.Health = addCapped(r.Health, ceilPercent(r.MaxHealth, growPercent), r.MaxHealth)
	r.MaxMana = ceilPercent(r.MaxMana, 100+growPercent)
	r.Mana = addCapped(r.Mana, ceilPercent(r.MaxMana, growPercent), r.MaxMana)
}

// AddExperience credits a positive amount of experience and performs every
// level-up it pays for, up to MaxLevel. It returns a single notice covering
// all levels gained, or "" when none were.
func AddExperience(c *character.Character, amount int) (string, int) {
	if c == nil || amount <= 0 {
		return "", 0
	}
	c.Experience = addCapped(c.Experience, amount, math.MaxInt)

	levels := 0
	for c.Level < MaxLevel && c.Experience >= rules.XPToNextLevel(c.Level) {
		c.Experience -= rules.XPToNextLevel(c.Level)
		c.Level++
		Growth(&c.Resources)
		levels++
	}
	if levels == 0 {
		return "", 0
	}
	if c.RequiresSlots() {
		GrowSlots(c)
	}
	return Notice(c.Level, levels), levels
}

// ExperienceFor returns the experience needed to climb the given number of
// levels from the start of level.
func ExperienceFor(level, levels int) int {
	total := 0
	for i := range levels {
		total += rules.XPToNextLevel(level + i)
	}
	return total
}

// Notice formats the level-up message.
func Notice(level, levels int) string {
	if levels == 1 {
		return fmt.Sprintf("🎉 Level up! You reached level %d and gained +10%% maximum health and mana. Use !status to see your progress.", level)
	}
	return fmt.Sprintf("🎉 Level up! You gained %d levels and reached level %d. Maximum health and mana grew by 10%% per level. Use !status to see your progress.", levels, level)
}

// GrowSlots raises slot totals to what the class table gives at the current
// level and adds circles the character did not have yet. Used counts are
// kept, and totals never shrink.
func GrowSlots(c *character.Character) {
	expected := rules.SlotsFor(c.Class, c.Level)
	if len(expected) == 0 {
		return
	}
	if c.SpellSlots == nil {
		c.SpellSlots = make(character.SlotPool, len(expected))
	}
	for circle, want := range expected {
		have, ok := c.SpellSlots[circle]
		if !ok {
			c.SpellSlots[circle] = want
			continue
		}
		if want.Total > have.Total {
			have.Total = want.Total
			c.SpellSlots[circle] = have
		}
	}
}

// SetLevel is the administrative path for moving a character to a level
// directly. Experience inside the level resets, pools grow once per level
// gained, and slot tables follow the new level. Levels above MaxLevel are
// capped.
func SetLevel(c *character.Character, level int) {
	if c == nil || level < 0 {
		return
	}
	level = min(level, MaxLevel)
	for c.Level < level {
		c.Level++
		Growth(&c.Resources)
	}
	c.Level = level
	c.Experience = 0
	if c.RequiresSlots() {
		GrowSlots(c)
	}
}

// OverrideAttributes is the administrative path for changing base ability
// scores. Labels are matched like item bonus labels, so "Força" sets
// strength. Labels that name no ability are returned, sorted.
func OverrideAttributes(c *character.Character, scores map[string]int) []string {
	var unknown []string
	for label, v := range scores {
		target, attr := buffs.CanonicalAttribute(label)
		if target != buffs.TargetAttribute {
			unknown = append(unknown, label)
			continue
		}
		c.Attributes.Set(attr, v)
	}
	sort.Strings(unknown)
	return unknown
}
