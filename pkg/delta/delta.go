// Package delta turns narrator output into a typed, partial state update.
//
// A Delta only describes what the narrator reported. Absent fields mean "no
// change" and are represented as nil pointers or nil collections, never as
// zero values. Whether a reported change is allowed is decided by the ledger.
package delta

import "github.com/guialv3s/InfinityAIRPG/pkg/character"

// Delta is the partial character update carried by one narrator turn.
type Delta struct {
	Health    *int
	MaxHealth *int
	Mana      *int
	MaxMana   *int
	Gold      *int

	// Items is the complete inventory as the narrator sees it. A nil
	// pointer means the narrator did not send an item list.
	Items *[]character.Item

	// SpellSlots holds only the circles the narrator mentioned.
	SpellSlots character.SlotPool

	// Level is reported but never assigned; progression comes from
	// Experience, which is the narrator's running lifetime total.
	Level      *int
	Experience *int

	// Attributes is kept only so the ledger can log what it discards.
	Attributes map[string]any

	Spells *[]character.Spell
	Status *[]string

	// Ignored lists top-level keys that were not understood.
	Ignored []string
}

// IsEmpty reports whether the delta carries no usable change.
func (d *Delta) IsEmpty() bool {
	return d == nil || (d.Health == nil &&
		d.MaxHealth == nil &&
		d.Mana == nil &&
		d.MaxMana == nil &&
		d.Gold == nil &&
		d.Items == nil &&
		len(d.SpellSlots) == 0 &&
		d.Level == nil &&
		d.Experience == nil &&
		d.Attributes == nil &&
		d.Spells == nil &&
		d.Status == nil)
}

// Span is a half-open byte range [Start, End) within the narrator text.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Strip removes the span from text.
func (s Span) Strip(text string) string {
	if s.Empty() || s.Start < 0 || s.End > len(text) {
		return text
	}
	return text[:s.Start] + text[s.End:]
}
