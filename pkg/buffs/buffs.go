// Package buffs derives temporary bonuses from what a character carries.
//
// Nothing here writes to a character. Results are meant to be layered on top
// of base stats when displaying a sheet or building a combat actor.
package buffs

import (
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
)

// Buffs is the summed bonus of an inventory.
type Buffs struct {
	Attributes     map[string]int `json:"attributes"`
	ExtraHealthMax int            `json:"extra_health_max"`
	ExtraManaMax   int            `json:"extra_mana_max"`
}

// IsZero reports whether the inventory grants nothing.
func (b Buffs) IsZero() bool {
	return len(b.Attributes) == 0 && b.ExtraHealthMax == 0 && b.ExtraManaMax == 0
}

// Stats returns base with the attribute bonuses added.
func (b Buffs) Stats(base character.Stats) character.Stats {
	out := base
	for attr, bonus := range b.Attributes {
		v, _ := out.Get(attr)
		out.Set(attr, v+bonus)
	}
	return out
}

// Target says what a bonus label refers to.
type Target int

const (
	TargetNone Target = iota
	TargetAttribute
	TargetMaxHealth
	TargetMaxMana
)

// attribute spellings, folded; abbreviations must match exactly
var (
	attributeNames = map[string][]string{
		character.AttrStrength:     {"strength", "forca"},
		character.AttrDexterity:    {"dexterity", "destreza"},
		character.AttrConstitution: {"constitution", "constituicao"},
		character.AttrIntelligence: {"intelligence", "inteligencia"},
		character.AttrWisdom:       {"wisdom", "sabedoria"},
		character.AttrCharisma:     {"charisma", "carisma"},
	}
	attributeAbbreviations = map[string]string{
		"str": character.AttrStrength,
		"for": character.AttrStrength,
		"dex": character.AttrDexterity,
		"des": character.AttrDexterity,
		"con": character.AttrConstitution,
		"int": character.AttrIntelligence,
		"wis": character.AttrWisdom,
		"sab": character.AttrWisdom,
		"cha": character.AttrCharisma,
		"car": character.AttrCharisma,
	}
	healthLabels = []string{"vida", "health", "hp"}
)

// CanonicalAttribute maps a free-form bonus label to what it boosts. Matching
// ignores case and accents and accepts labels that merely contain a full
// attribute name, such as "bonus de força" or "Strength (when wielded)".
func CanonicalAttribute(label string) (Target, string) {
	l := strings.TrimSpace(textfilter.Fold(label))
	if l == "" {
		return TargetNone, ""
	}

	if strings.Contains(l, "vida_maxima") || (textfilter.ContainsAny(l, healthLabels...) && strings.Contains(l, "max")) {
		return TargetMaxHealth, ""
	}
	if strings.Contains(l, "mana") && strings.Contains(l, "max") {
		return TargetMaxMana, ""
	}

	if attr, ok := attributeAbbreviations[l]; ok {
		return TargetAttribute, attr
	}
	for _, attr := range character.AttributeNames {
		for _, name := range attributeNames[attr] {
			if l == name {
				return TargetAttribute, attr
			}
		}
	}
	for _, attr := range character.AttributeNames {
		if textfilter.ContainsAny(l, attributeNames[attr]...) {
			return TargetAttribute, attr
		}
	}
	return TargetNone, ""
}

// Derive sums the bonuses of every item. Explicit bonus maps win, even empty
// ones; items without one get bonuses inferred from their name. Zero magnitudes and
// unrecognised labels are dropped.
func Derive(items []character.Item, class string) Buffs {
	out := Buffs{Attributes: make(map[string]int)}
	for _, item := range items {
		bonuses := item.Bonuses
		if bonuses == nil {
			bonuses = Infer(item, class)
		}
		for label, value := range bonuses {
			n := value.Magnitude()
			if n == 0 {
				continue
			}
			target, attr := CanonicalAttribute(label)
			switch target {
			case TargetAttribute:
				out.Attributes[attr] += n
			case TargetMaxHealth:
				out.ExtraHealthMax += n
			case TargetMaxMana:
				out.ExtraManaMax += n
			}
		}
	}
	for attr, n := range out.Attributes {
		if n == 0 {
			delete(out.Attributes, attr)
		}
	}
	return out
}
