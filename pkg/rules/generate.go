package rules

import (
	"math/rand/v2"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
)

// standardArray is shuffled across the six abilities on generation.
var standardArray = []int{15, 14, 13, 12, 10, 8}

// NonMagicManaCap caps the resource pool of characters in themes without magic.
const NonMagicManaCap = 20

// Initial is the rolled starting state of a new character.
type Initial struct {
	Attributes character.Stats
	Resources  character.Resources
	Gold       int
	Inventory  []character.Item
	Spells     []character.Spell
}

type raceBonus struct {
	keywords []string
	bonus    map[string]int
	all      int
}

var raceBonuses = []raceBonus{
	{keywords: []string{"humano", "human"}, all: 1},
	{keywords: []string{"elfo", "elf"}, bonus: map[string]int{character.AttrDexterity: 2, character.AttrIntelligence: 1}},
	{keywords: []string{"anao", "dwarf"}, bonus: map[string]int{character.AttrConstitution: 2, character.AttrStrength: 1}},
	{keywords: []string{"orc"}, bonus: map[string]int{character.AttrStrength: 2, character.AttrConstitution: 1}},
	{keywords: []string{"tiefling"}, bonus: map[string]int{character.AttrCharisma: 2, character.AttrIntelligence: 1}},
	{keywords: []string{"draconato", "dragonborn"}, bonus: map[string]int{character.AttrStrength: 2, character.AttrCharisma: 1}},
	{keywords: []string{"halfling"}, bonus: map[string]int{character.AttrDexterity: 2}},
	{keywords: []string{"gnomo", "gnome"}, bonus: map[string]int{character.AttrIntelligence: 2}},
}

// classKit describes what a class starts with. Item quantities of zero are
// rolled between 1 and 3.
type classKit struct {
	keywords  []string
	hpBase    int
	manaBase  int
	primary   string
	items     []character.Item
	weapons   []string
	armors    []string
	spells    []character.Spell
	manaExtra map[string]int // keyword -> mana base override
}

var classKits = []classKit{
	{
		keywords: []string{"mago", "feiticeiro", "wizard", "sorcerer", "mage"},
		hpBase:   6,
		manaBase: 20,
		primary:  character.AttrIntelligence,
		items:    []character.Item{{Name: "Mana Potion"}, {Name: "Grimoire", Quantity: 1}},
		spells: []character.Spell{
			{Name: "Magic Missile", Cost: 10, Description: "Fires three darts of force."},
			{Name: "Arcane Shield", Cost: 15, Description: "+5 to armor class for a short while."},
		},
	},
	{
		keywords:  []string{"guerreiro", "barbaro", "warrior", "fighter", "barbarian"},
		hpBase:    12,
		primary:   character.AttrStrength,
		items:     []character.Item{{Name: "Healing Potion"}},
		weapons:   []string{"Longsword", "Battle Axe", "Greatsword"},
		armors:    []string{"Chain Mail", "Studded Leather Armor"},
		manaExtra: map[string]int{"guerreiro": 5, "warrior": 5, "fighter": 5},
	},
	{
		keywords: []string{"ladino", "rogue"},
		hpBase:   8,
		manaBase: 5,
		primary:  character.AttrDexterity,
		items: []character.Item{
			{Name: "Dagger", Quantity: 2},
			{Name: "Thieves' Tools", Quantity: 1},
			{Name: "Leather Armor", Quantity: 1},
		},
	},
	{
		keywords: []string{"clerigo", "cleric"},
		hpBase:   8,
		manaBase: 15,
		primary:  character.AttrWisdom,
		items: []character.Item{
			{Name: "Holy Symbol", Quantity: 1},
			{Name: "Greater Healing Potion", Quantity: 1},
			{Name: "Mace", Quantity: 1},
		},
		spells: []character.Spell{
			{Name: "Cure Wounds", Cost: 15, Description: "Restores health with a touch."},
			{Name: "Sacred Flame", Cost: 0, Description: "Radiant damage to one enemy."},
		},
	},
	{
		keywords: []string{"bardo", "bard"},
		hpBase:   8,
		manaBase: 15,
		items:    []character.Item{{Name: "Musical Instrument", Quantity: 1}},
		spells:   []character.Spell{{Name: "Bardic Inspiration", Cost: 10, Description: "Grants a bonus to an ally."}},
	},
	{
		keywords: []string{"paladino", "paladin"},
		hpBase:   10,
		manaBase: 10,
		items:    []character.Item{{Name: "Longsword", Quantity: 1}, {Name: "Shield", Quantity: 1}},
		spells:   []character.Spell{{Name: "Lay on Hands", Cost: 5, Description: "Heals by touch."}},
	},
}

var fallbackKit = classKit{
	hpBase:   8,
	manaBase: 5,
	items:    []character.Item{{Name: "Adventurer's Pack", Quantity: 1}, {Name: "Dagger", Quantity: 1}},
}

func kitFor(class string) (classKit, string) {
	c := textfilter.Fold(class)
	for _, kit := range classKits {
		if textfilter.ContainsAny(c, kit.keywords...) {
			return kit, c
		}
	}
	return fallbackKit, c
}

// GenerateInitial rolls a starting character for a class, race and theme.
// All randomness comes from rng so callers can make generation repeatable.
func GenerateInitial(class, race, theme string, rng *rand.Rand) Initial {
	// 1. shuffled standard array with a little noise
	values := append([]int(nil), standardArray...)
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	var stats character.Stats
	for i, attr := range character.AttributeNames {
		stats.Set(attr, values[i]+rng.IntN(3)-1)
	}

	// 2. race
	applyRace(&stats, textfilter.Fold(race), rng)

	// 3. class kit; modifiers are taken before the primary minimum applies
	kit, foldedClass := kitFor(class)
	conMod := character.Modifier(stats.Constitution)
	intMod := character.Modifier(stats.Intelligence)
	wisMod := character.Modifier(stats.Wisdom)

	if kit.primary != "" {
		if v, _ := stats.Get(kit.primary); v < 14 {
			stats.Set(kit.primary, 14)
		}
	}

	items := []character.Item{{Name: "Travel Rations (5 days)", Quantity: 1}}
	for _, it := range kit.items {
		if it.Quantity == 0 {
			it.Quantity = 1 + rng.IntN(3)
		}
		items = append(items, it)
	}
	if len(kit.weapons) > 0 {
		items = append(items, character.Item{Name: kit.weapons[rng.IntN(len(kit.weapons))], Quantity: 1})
	}
	if len(kit.armors) > 0 {
		items = append(items, character.Item{Name: kit.armors[rng.IntN(len(kit.armors))], Quantity: 1})
	}
	spells := append([]character.Spell{}, kit.spells...)

	manaBase := kit.manaBase
	for k, v := range kit.manaExtra {
		if textfilter.ContainsAny(foldedClass, k) {
			manaBase = v
		}
	}

	gold := 10 + rng.IntN(141)

	hp := max(5, (kit.hpBase+conMod)*10)
	mana := max(0, manaBase*5+(intMod+wisMod)*5)

	// 4. theme
	if !MagicAllowed(theme) {
		spells = []character.Spell{}
		mana = min(mana, NonMagicManaCap)
	}

	return Initial{
		Attributes: stats,
		Resources:  character.Resources{Health: hp, MaxHealth: hp, Mana: mana, MaxMana: mana},
		Gold:       gold,
		Inventory:  items,
		Spells:     spells,
	}
}

func applyRace(stats *character.Stats, race string, rng *rand.Rand) {
	for _, rb := range raceBonuses {
		if !textfilter.ContainsAny(race, rb.keywords...) {
			continue
		}
		for _, attr := range character.AttributeNames {
			v, _ := stats.Get(attr)
			stats.Set(attr, v+rb.all+rb.bonus[attr])
		}
		return
	}
	// unknown race: two random abilities get +1
	perm := rng.Perm(len(character.AttributeNames))
	for _, i := range perm[:2] {
		attr := character.AttributeNames[i]
		v, _ := stats.Get(attr)
		stats.Set(attr, v+1)
	}
}

// NewCharacter builds a ready-to-save character from generation rules.
// Rules-strict characters track spell slots and carry no mana.
func NewCharacter(key character.Key, name, class, race, theme string, mode character.Mode, rng *rand.Rand) *character.Character {
	init := GenerateInitial(class, race, theme, rng)

	c := character.New(key, name, class, race, theme, mode)
	c.Attributes = init.Attributes
	c.Resources = init.Resources
	c.Gold = init.Gold
	c.Inventory = init.Inventory
	c.Spells = init.Spells

	if c.RequiresSlots() {
		c.Resources.Mana = 0
		c.Resources.MaxMana = 0
		c.SpellSlots = SlotsFor(class, c.Level)
	}
	return c
}
