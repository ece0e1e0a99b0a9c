// Package ledger merges narrator deltas into the canonical character record
// and provides the other sanctioned mutations (rest, reset, normalisation).
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/delta"
	"github.com/guialv3s/InfinityAIRPG/pkg/leveling"
	"github.com/guialv3s/InfinityAIRPG/pkg/rules"
)

// ErrNoCharacter is returned when a worker is asked to apply to nothing.
var ErrNoCharacter = errors.New("no character to apply delta to")

// MaxLevelsPerTurn bounds how many levels one reported experience total can
// pay for. Larger gains are discarded as invalid.
const MaxLevelsPerTurn = 5

// Report describes what one Apply did.
type Report struct {
	LevelUp   string   `json:"level_up,omitempty"`
	Levels    int      `json:"levels,omitempty"`
	Discarded []string `json:"discarded,omitempty"`
	Clamped   []string `json:"clamped,omitempty"`
	Preserved []string `json:"preserved,omitempty"`
	Reseeded  []string `json:"reseeded,omitempty"`
	Changed   bool     `json:"changed"`
}

// DeltaWorker applies one narrator delta to a character under the ledger's
// invariants. It mutates the character it was given; callers that need to
// keep the stored copy intact should pass a clone.
type DeltaWorker struct {
	c      *character.Character
	delta  *delta.Delta
	logger *slog.Logger
}

// NewDeltaWorker creates a worker for applying a delta to a character
func NewDeltaWorker(c *character.Character, d *delta.Delta, logger *slog.Logger) *DeltaWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaWorker{
		c:      c,
		delta:  d,
		logger: logger.With("character", keyOf(c)),
	}
}

func keyOf(c *character.Character) string {
	if c == nil {
		return ""
	}
	return c.Key.String()
}

// Apply merges the delta. Resources and inventory are applied first so that
// any level-up growth lands on top of what the narrator reported.
func (dw *DeltaWorker) Apply() (Report, error) {
	var report Report
	if dw.c == nil {
		return report, ErrNoCharacter
	}
	if dw.delta.IsEmpty() {
		return report, nil
	}
	before := snapshot(dw.c)
	d := dw.delta

	dw.applyResources()
	if d.Items != nil {
		items, preserved := MergeItems(dw.c.Inventory, *d.Items)
		for _, name := range preserved {
			dw.logger.Info("Preserved item bonuses during inventory merge", "item", name)
		}
		dw.c.Inventory = items
		report.Preserved = preserved
	}
	dw.applySlots()

	if d.Experience != nil {
		report.LevelUp, report.Levels = dw.applyExperience(*d.Experience, &report)
	}

	if dw.c.RequiresSlots() {
		report.Reseeded = Reseed(dw.c)
		if len(report.Reseeded) > 0 {
			dw.logger.Info("Reseeded missing spell circles", "circles", report.Reseeded)
		}
		dw.c.Resources.Mana = 0
		dw.c.Resources.MaxMana = 0
	}

	if d.Attributes != nil {
		dw.logger.Warn("Discarding attribute changes from narrator", "attributes", d.Attributes)
		report.Discarded = append(report.Discarded, "attributes")
	}
	if d.Level != nil {
		if *d.Level != dw.c.Level {
			dw.logger.Debug("Discarding narrator level", "reported", *d.Level, "level", dw.c.Level)
		}
		report.Discarded = append(report.Discarded, "level")
	}

	if d.Spells != nil {
		dw.c.Spells = append(make([]character.Spell, 0, len(*d.Spells)), *d.Spells...)
	}
	if d.Status != nil {
		dw.c.Status = append(make([]string, 0, len(*d.Status)), *d.Status...)
	}

	report.Clamped = dw.c.Clamp()
	if len(report.Clamped) > 0 {
		dw.logger.Debug("Clamped out of range values", "fixes", report.Clamped)
	}

	report.Changed = !bytes.Equal(before, snapshot(dw.c))
	return report, nil
}

func (dw *DeltaWorker) applyResources() {
	d, r := dw.delta, &dw.c.Resources
	// maxima first so the current values clamp against the new ceiling
	if d.MaxHealth != nil {
		r.MaxHealth = *d.MaxHealth
	}
	if d.Health != nil {
		r.Health = *d.Health
	}
	if d.MaxMana != nil {
		r.MaxMana = *d.MaxMana
	}
	if d.Mana != nil {
		r.Mana = *d.Mana
	}
	if d.Gold != nil {
		dw.c.Gold = *d.Gold
	}
}

// applySlots upserts the circles the delta mentions and leaves the rest.
func (dw *DeltaWorker) applySlots() {
	if len(dw.delta.SpellSlots) == 0 {
		return
	}
	if dw.c.SpellSlots == nil {
		dw.c.SpellSlots = make(character.SlotPool, len(dw.delta.SpellSlots))
	}
	for circle, slot := range dw.delta.SpellSlots {
		dw.c.SpellSlots[circle] = slot
	}
}

// applyExperience treats the reported value as the narrator's running total
// and credits only the increase over the recorded total. A gain worth more
// than MaxLevelsPerTurn levels is discarded.
func (dw *DeltaWorker) applyExperience(reported int, report *Report) (string, int) {
	if reported <= dw.c.TotalExperience {
		dw.logger.Debug("Ignoring non-positive experience delta",
			"reported", reported,
			"total", dw.c.TotalExperience)
		return "", 0
	}
	gain := reported - dw.c.TotalExperience
	if limit := leveling.ExperienceFor(dw.c.Level, MaxLevelsPerTurn) - dw.c.Experience; gain > limit {
		dw.logger.Warn("Discarding implausible experience gain",
			"reported", reported,
			"total", dw.c.TotalExperience,
			"gain", gain,
			"limit", limit)
		report.Discarded = append(report.Discarded, "experience")
		return "", 0
	}
	dw.c.TotalExperience = reported
	return leveling.AddExperience(dw.c, gain)
}

// MergeItems reconciles a narrator's full item list against the current one
// by display name. A matched item that arrives without bonuses (or without a
// description) keeps the old ones. Items missing from the new list are
// dropped. Names of items whose bonuses were carried forward are returned.
//
// Matching is by exact name only; the same item described under two names
// will not match.
func MergeItems(old, incoming []character.Item) ([]character.Item, []string) {
	byName := make(map[string]character.Item, len(old))
	for _, it := range old {
		if _, seen := byName[it.Name]; !seen {
			byName[it.Name] = it
		}
	}

	var preserved []string
	merged := make([]character.Item, 0, len(incoming))
	for _, it := range incoming {
		it.Bonuses = character.CloneBonuses(it.Bonuses)
		if prev, ok := byName[it.Name]; ok {
			if it.Bonuses == nil && len(prev.Bonuses) > 0 {
				it.Bonuses = character.CloneBonuses(prev.Bonuses)
				preserved = append(preserved, it.Name)
			}
			if it.Description == "" {
				it.Description = prev.Description
			}
		}
		merged = append(merged, it)
	}
	return merged, preserved
}

// Reseed adds every circle the class table expects at the character's level
// but the pool lacks. Existing circles are left alone. It returns the
// circles added.
func Reseed(c *character.Character) []string {
	expected := rules.SlotsFor(c.Class, c.Level)
	var added []string
	for circle, slot := range expected {
		if _, ok := c.SpellSlots[circle]; ok {
			continue
		}
		if c.SpellSlots == nil {
			c.SpellSlots = make(character.SlotPool, len(expected))
		}
		c.SpellSlots[circle] = slot
		added = append(added, circle)
	}
	sort.Strings(added)
	return added
}

func snapshot(c *character.Character) []byte {
	b, _ := json.Marshal(c)
	return b
}
