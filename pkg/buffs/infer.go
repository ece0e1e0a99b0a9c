package buffs

import (
	"strings"
	"unicode"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
)

// inferRule grants +1 to an attribute when an item name mentions one of the
// keywords. Keywords shorter than five letters must start a word so that
// "arco" does not match "barco".
type inferRule struct {
	keywords []string
	attr     string
}

var inferRules = []inferRule{
	{keywords: []string{"espada", "sword", "machado", "axe"}, attr: character.AttrStrength},
	{keywords: []string{"adaga", "dagger", "arco", "bow", "longbow", "shortbow", "besta", "crossbow"}, attr: character.AttrDexterity},
	{keywords: []string{"escudo", "shield", "armadura", "armor", "armour", "veste", "robe"}, attr: character.AttrConstitution},
}

var (
	focusKeywords     = []string{"cajado", "staff", "varinha", "wand"}
	jewelryKeywords   = []string{"anel", "ring", "amuleto", "amulet"}
	arcaneClasses     = []string{"mago", "feiticeiro", "wizard", "sorcerer", "mage"}
	naturalClasses    = []string{"druida", "druid"}
	intelligenceWords = []string{"inteligencia", "intelligence"}
	wisdomWords       = []string{"sabedoria", "wisdom"}
)

// Infer guesses bonuses for an item that came without any. The result is
// keyed by canonical attribute name and is never stored on the item.
func Infer(item character.Item, class string) map[string]character.BonusValue {
	name := textfilter.Fold(item.Name)
	desc := textfilter.Fold(item.Description)
	cls := textfilter.Fold(class)

	out := make(map[string]character.BonusValue)
	if mentions(name, focusKeywords) {
		switch {
		case textfilter.ContainsAny(cls, arcaneClasses...):
			out[character.AttrIntelligence] = "1"
		case textfilter.ContainsAny(cls, naturalClasses...):
			out[character.AttrWisdom] = "1"
		}
	}
	for _, rule := range inferRules {
		if mentions(name, rule.keywords) {
			out[rule.attr] = "1"
		}
	}
	if mentions(name, jewelryKeywords) {
		switch {
		case textfilter.ContainsAny(desc, intelligenceWords...):
			out[character.AttrIntelligence] = "1"
		case textfilter.ContainsAny(desc, wisdomWords...):
			out[character.AttrWisdom] = "1"
		default:
			out[character.AttrCharisma] = "1"
		}
	}
	return out
}

func mentions(folded string, keywords []string) bool {
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, k := range keywords {
		if len(k) >= 5 {
			if strings.Contains(folded, k) {
				return true
			}
			continue
		}
		for _, w := range words {
			if strings.HasPrefix(w, k) {
				return true
			}
		}
	}
	return false
}
