package character

import (
	"fmt"
	"strings"
	"time"
)

// NotFoundNotice is returned to the player when a turn targets a character
// that has not been created yet.
const NotFoundNotice = "Character not found. Please create your character before playing."

// Mode is the narrative mode chosen at character creation.
type Mode string

const (
	ModeNarrative Mode = "narrative" // free narrative, no dice
	ModeDice      Mode = "dice"      // dice-assisted freeform
	ModeStrict    Mode = "strict"    // rules-strict, spell slots instead of mana
)

// ParseMode maps a free-form mode label onto a Mode. Unknown labels fall back
// to ModeNarrative.
func ParseMode(label string) Mode {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == string(ModeStrict),
		strings.Contains(l, "dnd"),
		strings.Contains(l, "d&d"),
		strings.Contains(l, "5e"),
		strings.Contains(l, "rules"):
		return ModeStrict
	case l == string(ModeDice),
		strings.Contains(l, "dados"),
		strings.Contains(l, "rolagem"):
		return ModeDice
	default:
		return ModeNarrative
	}
}

// Key identifies one character: one per player per campaign.
type Key struct {
	PlayerID   string `json:"player_id"`
	CampaignID string `json:"campaign_id"`
}

func (k Key) String() string {
	return k.PlayerID + ":" + k.CampaignID
}

// Validate checks that both halves of the key are present
func (k Key) Validate() error {
	if strings.TrimSpace(k.PlayerID) == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(k.CampaignID) == "" {
		return fmt.Errorf("campaign id is required")
	}
	if strings.Contains(k.PlayerID, ":") || strings.Contains(k.CampaignID, ":") {
		return fmt.Errorf("ids must not contain ':'")
	}
	return nil
}

// Resources holds the current and maximum values of both resource pools.
type Resources struct {
	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
	Mana      int `json:"mana"`
	MaxMana   int `json:"max_mana"`
}

// Spell is a named ability in the spellbook.
type Spell struct {
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Description string `json:"description,omitempty"`
}

// Character is the canonical, persisted record for one player in one campaign.
//
// Attributes only change through character generation, the admin path of the
// leveling engine, or an explicit administrative override. Narrative deltas
// never touch them.
type Character struct {
	Key             Key       `json:"key"`
	Name            string    `json:"name"`
	Class           string    `json:"class"`
	Race            string    `json:"race,omitempty"`
	Theme           string    `json:"theme,omitempty"`
	Mode            Mode      `json:"mode"`
	Level           int       `json:"level"`
	Experience      int       `json:"experience"`       // progress inside the current level
	TotalExperience int       `json:"total_experience"` // lifetime total, compared against provider totals
	Resources       Resources `json:"resources"`
	SpellSlots      SlotPool  `json:"spell_slots,omitempty"`
	Attributes      Stats     `json:"attributes"`
	Inventory       []Item    `json:"inventory"`
	Spells          []Spell   `json:"spells"`
	Status          []string  `json:"status"`
	Gold            int       `json:"gold"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StartingLevel is the level of a new character; the first threshold takes
// it to level 1.
const StartingLevel = 0

// New returns a character with the default starting pools and flat ability
// scores. Generation rules may overwrite these before the first save.
func New(key Key, name, class, race, theme string, mode Mode) *Character {
	now := time.Now().UTC()
	return &Character{
		Key:   key,
		Name:  name,
		Class: class,
		Race:  race,
		Theme: theme,
		Mode:  mode,
		Level: StartingLevel,
		Resources: Resources{
			Health:    100,
			MaxHealth: 100,
			Mana:      50,
			MaxMana:   50,
		},
		Attributes: DefaultStats(),
		Inventory:  make([]Item, 0),
		Spells:     make([]Spell, 0),
		Status:     make([]string, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RequiresSlots reports whether the character tracks magic as spell slots.
func (c *Character) RequiresSlots() bool {
	return c != nil && c.Mode == ModeStrict
}

// HasStatus reports whether the named status is active (case-insensitive).
func (c *Character) HasStatus(name string) bool {
	for _, s := range c.Status {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the character so that a merge can
// be discarded without touching the original.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	cp := *c
	cp.SpellSlots = c.SpellSlots.Clone()
	cp.Inventory = make([]Item, len(c.Inventory))
	for i, it := range c.Inventory {
		it.Bonuses = CloneBonuses(it.Bonuses)
		cp.Inventory[i] = it
	}
	cp.Spells = append(make([]Spell, 0, len(c.Spells)), c.Spells...)
	cp.Status = append(make([]string, 0, len(c.Status)), c.Status...)
	return &cp
}

// Clamp forces every pool into range: 0 <= current <= max for health, mana
// and each spell circle, and non-negative gold, level and experience.
// It returns a description of each correction made.
func (c *Character) Clamp() []string {
	var fixes []string
	clamp := func(field string, v *int, lo, hi int) {
		before := *v
		if *v < lo {
			*v = lo
		}
		if *v > hi {
			*v = hi
		}
		if before != *v {
			fixes = append(fixes, fmt.Sprintf("%s %d->%d", field, before, *v))
		}
	}
	const unbounded = int(^uint(0) >> 1)

	r := &c.Resources
	clamp("max_health", &r.MaxHealth, 0, unbounded)
	clamp("health", &r.Health, 0, r.MaxHealth)
	clamp("max_mana", &r.MaxMana, 0, unbounded)
	clamp("mana", &r.Mana, 0, r.MaxMana)
	clamp("gold", &c.Gold, 0, unbounded)
	clamp("level", &c.Level, 0, unbounded)
	clamp("experience", &c.Experience, 0, unbounded)
	clamp("total_experience", &c.TotalExperience, c.Experience, unbounded)

	for circle, slot := range c.SpellSlots {
		clamp("slots["+circle+"].total", &slot.Total, 0, unbounded)
		clamp("slots["+circle+"].used", &slot.Used, 0, slot.Total)
		c.SpellSlots[circle] = slot
	}

	for i := range c.Inventory {
		clamp("inventory["+c.Inventory[i].Name+"].quantity", &c.Inventory[i].Quantity, 0, unbounded)
	}
	return fixes
}
