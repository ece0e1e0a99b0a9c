package rules

import (
	"strconv"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
)

// Archetype groups classes by how they gain spell slots.
type Archetype int

const (
	NonCaster Archetype = iota
	FullCaster
	HalfCaster
	PactCaster
)

func (a Archetype) String() string {
	switch a {
	case FullCaster:
		return "full"
	case HalfCaster:
		return "half"
	case PactCaster:
		return "pact"
	default:
		return "none"
	}
}

// MaxTableLevel is the highest level the slot tables describe.
const MaxTableLevel = 20

// class keywords, folded
var (
	fullCasterKeywords = []string{"mago", "wizard", "mage", "feiticeiro", "sorcerer", "clerigo", "cleric", "druida", "druid", "bardo", "bard"}
	pactCasterKeywords = []string{"bruxo", "warlock"}
	halfCasterKeywords = []string{"paladino", "paladin", "ranger", "guardiao"}
)

// fullCasterSlots[level][circle-1] is the slot total for that circle.
var fullCasterSlots = [MaxTableLevel + 1][]int{
	1:  {2},
	2:  {3},
	3:  {4, 2},
	4:  {4, 3},
	5:  {4, 3, 2},
	6:  {4, 3, 3},
	7:  {4, 3, 3, 1},
	8:  {4, 3, 3, 2},
	9:  {4, 3, 3, 3, 1},
	10: {4, 3, 3, 3, 2},
	11: {4, 3, 3, 3, 2, 1},
	12: {4, 3, 3, 3, 2, 1},
	13: {4, 3, 3, 3, 2, 1, 1},
	14: {4, 3, 3, 3, 2, 1, 1},
	15: {4, 3, 3, 3, 2, 1, 1, 1},
	16: {4, 3, 3, 3, 2, 1, 1, 1},
	17: {4, 3, 3, 3, 2, 1, 1, 1, 1},
	18: {4, 3, 3, 3, 3, 1, 1, 1, 1},
	19: {4, 3, 3, 3, 3, 2, 1, 1, 1},
	20: {4, 3, 3, 3, 3, 2, 2, 1, 1},
}

// slotTables holds one row per level for each caster archetype. Rows are
// circle totals indexed from circle 1; a zero total means no slot.
var slotTables = buildSlotTables()

func buildSlotTables() map[Archetype][MaxTableLevel + 1][]int {
	var half, pact [MaxTableLevel + 1][]int
	for lvl := 1; lvl <= MaxTableLevel; lvl++ {
		if lvl >= 2 {
			half[lvl] = fullCasterSlots[(lvl+1)/2]
		}
		circle := min(5, (lvl+1)/2)
		row := make([]int, circle)
		row[circle-1] = min(4, (lvl+1)/2)
		pact[lvl] = row
	}
	return map[Archetype][MaxTableLevel + 1][]int{
		FullCaster: fullCasterSlots,
		HalfCaster: half,
		PactCaster: pact,
	}
}

// ArchetypeOf classifies a free-form class name. Both English and
// Portuguese names are recognised, with or without accents.
func ArchetypeOf(class string) Archetype {
	c := textfilter.Fold(class)
	switch {
	case textfilter.ContainsAny(c, fullCasterKeywords...):
		return FullCaster
	case textfilter.ContainsAny(c, pactCasterKeywords...):
		return PactCaster
	case textfilter.ContainsAny(c, halfCasterKeywords...):
		return HalfCaster
	default:
		return NonCaster
	}
}

// SlotsFor returns a fresh, fully recovered slot pool for a class at a level.
// Full casters outside the table fall back to two first-circle slots; half
// and pact casters past the table use its last row. Non-casters get an empty
// pool.
func SlotsFor(class string, level int) character.SlotPool {
	pool := character.SlotPool{}
	arch := ArchetypeOf(class)
	if arch == NonCaster {
		return pool
	}

	var row []int
	switch {
	case arch == FullCaster && (level < 1 || level > MaxTableLevel):
		row = []int{2}
	case level < 1:
		return pool
	default:
		row = slotTables[arch][min(level, MaxTableLevel)]
	}

	for i, total := range row {
		if total > 0 {
			pool[strconv.Itoa(i+1)] = character.Slot{Total: total}
		}
	}
	return pool
}
