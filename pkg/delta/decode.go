package delta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
)

// ErrNotObject is returned when the block parses but is not a JSON object.
var ErrNotObject = errors.New("state block is not a JSON object")

// Accepted spellings for each field. Narrators answer in English or in
// Portuguese depending on the campaign, so both are recognised.
var (
	resourceKeys   = []string{"inventory", "inventario"}
	healthKeys     = []string{"health", "vida_atual", "vida", "hp"}
	maxHealthKeys  = []string{"max_health", "vida_maxima", "max_hp"}
	manaKeys       = []string{"mana", "mana_atual"}
	maxManaKeys    = []string{"max_mana", "mana_maxima"}
	goldKeys       = []string{"gold", "ouro"}
	itemsKeys      = []string{"items", "itens"}
	slotsKeys      = []string{"spell_slots"}
	levelKeys      = []string{"level", "nivel"}
	experienceKeys = []string{"experience", "experiencia", "xp"}
	attributesKeys = []string{"attributes", "atributos"}
	spellsKeys     = []string{"spells", "magias"}
	statusKeys     = []string{"status"}

	itemNameKeys  = []string{"name", "nome", "item"}
	itemQtyKeys   = []string{"quantity", "quantidade"}
	itemDescKeys  = []string{"description", "descricao"}
	itemBonusKeys = []string{"bonuses", "buffs"}
	spellNameKeys = []string{"name", "nome"}
	spellCostKeys = []string{"cost", "custo_mana", "custo"}
	slotTotalKeys = []string{"total"}
	slotUsedKeys  = []string{"used", "usado"}
)

var knownTopLevel = toSet(flatten(
	resourceKeys, healthKeys, maxHealthKeys, manaKeys, maxManaKeys, goldKeys, itemsKeys,
	slotsKeys, levelKeys, experienceKeys, attributesKeys, spellsKeys, statusKeys,
))

func flatten(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func toSet(keys []string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// object is a decoded JSON object with lowercased keys.
type object map[string]any

func lowerKeys(m map[string]any) object {
	out := make(object, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// lookup returns the value of the first alias present.
func (o object) lookup(aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := o[a]; ok {
			return v, true
		}
	}
	return nil, false
}

// Decode parses the content of a state block into a Delta. Values of the
// wrong type are skipped field by field; only invalid JSON or a non-object
// body fail the whole decode.
func Decode(data []byte) (*Delta, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse state block: %w", err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return fromObject(lowerKeys(m)), nil
}

func fromObject(top object) *Delta {
	d := &Delta{}

	// resources live either under an inventory object or at the top level
	res := top
	if v, ok := top.lookup(resourceKeys); ok {
		switch inv := v.(type) {
		case map[string]any:
			res = lowerKeys(inv)
		case []any:
			items := decodeItems(inv)
			d.Items = &items
		}
	}
	field := func(aliases []string) (any, bool) {
		if v, ok := res.lookup(aliases); ok {
			return v, true
		}
		return top.lookup(aliases)
	}

	d.Health = intField(field(healthKeys))
	d.MaxHealth = intField(field(maxHealthKeys))
	d.Mana = intField(field(manaKeys))
	d.MaxMana = intField(field(maxManaKeys))
	d.Gold = intField(field(goldKeys))

	if v, ok := field(itemsKeys); ok {
		if list, ok := v.([]any); ok {
			items := decodeItems(list)
			d.Items = &items
		}
	}
	if v, ok := field(slotsKeys); ok {
		if m, ok := v.(map[string]any); ok {
			d.SpellSlots = decodeSlots(m)
		}
	}

	d.Level = intField(top.lookup(levelKeys))
	d.Experience = intField(top.lookup(experienceKeys))

	if v, ok := top.lookup(attributesKeys); ok {
		if m, ok := v.(map[string]any); ok {
			d.Attributes = m
		} else {
			d.Attributes = map[string]any{"value": v}
		}
	}
	if v, ok := top.lookup(spellsKeys); ok {
		if list, ok := v.([]any); ok {
			spells := decodeSpells(list)
			d.Spells = &spells
		}
	}
	if v, ok := top.lookup(statusKeys); ok {
		if status, ok := decodeStatus(v); ok {
			d.Status = &status
		}
	}

	for k := range top {
		if _, known := knownTopLevel[k]; !known {
			d.Ignored = append(d.Ignored, k)
		}
	}
	sort.Strings(d.Ignored)
	return d
}

func decodeItems(list []any) []character.Item {
	items := make([]character.Item, 0, len(list))
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			if name := strings.TrimSpace(v); name != "" {
				items = append(items, character.Item{Name: name, Quantity: 1})
			}
		case map[string]any:
			o := lowerKeys(v)
			name := stringField(o.lookup(itemNameKeys))
			if name == "" {
				continue
			}
			item := character.Item{Name: name, Quantity: 1}
			if q := intField(o.lookup(itemQtyKeys)); q != nil {
				item.Quantity = *q
			}
			item.Description = stringField(o.lookup(itemDescKeys))
			if b, ok := o.lookup(itemBonusKeys); ok {
				item.Bonuses = decodeBonuses(b)
			}
			items = append(items, item)
		}
	}
	return items
}

// decodeBonuses keeps strings verbatim and numbers as their literal text;
// the buff deriver parses the magnitude later. null yields nil.
func decodeBonuses(v any) map[string]character.BonusValue {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]character.BonusValue, len(m))
	for k, raw := range m {
		switch b := raw.(type) {
		case string:
			out[k] = character.BonusValue(b)
		case json.Number:
			out[k] = character.BonusValue(b.String())
		default:
			out[k] = ""
		}
	}
	return out
}

func decodeSlots(m map[string]any) character.SlotPool {
	pool := make(character.SlotPool, len(m))
	for circle, raw := range m {
		circle = strings.TrimSpace(circle)
		if _, err := strconv.Atoi(circle); err != nil {
			continue
		}
		switch v := raw.(type) {
		case map[string]any:
			o := lowerKeys(v)
			var slot character.Slot
			if t := intField(o.lookup(slotTotalKeys)); t != nil {
				slot.Total = *t
			}
			if u := intField(o.lookup(slotUsedKeys)); u != nil {
				slot.Used = *u
			}
			pool[circle] = slot
		default:
			// a bare number is read as the total with nothing used
			if t := intField(v, true); t != nil {
				pool[circle] = character.Slot{Total: *t}
			}
		}
	}
	return pool
}

func decodeSpells(list []any) []character.Spell {
	spells := make([]character.Spell, 0, len(list))
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			if name := strings.TrimSpace(v); name != "" {
				spells = append(spells, character.Spell{Name: name})
			}
		case map[string]any:
			o := lowerKeys(v)
			name := stringField(o.lookup(spellNameKeys))
			if name == "" {
				continue
			}
			spell := character.Spell{Name: name, Description: stringField(o.lookup(itemDescKeys))}
			if c := intField(o.lookup(spellCostKeys)); c != nil {
				spell.Cost = *c
			}
			spells = append(spells, spell)
		}
	}
	return spells
}

func decodeStatus(v any) ([]string, bool) {
	switch s := v.(type) {
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if name, ok := e.(string); ok && strings.TrimSpace(name) != "" {
				out = append(out, strings.TrimSpace(name))
			}
		}
		return out, true
	case string:
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		return []string{strings.TrimSpace(s)}, true
	}
	return nil, false
}

// intField reads a tolerant integer: JSON numbers (fractions truncated) and
// numeric strings. Anything else, including numbers outside the int range,
// reads as absent.
func intField(v any, ok bool) *int {
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			n := int(i)
			return &n
		}
		if f, err := x.Float64(); err == nil {
			return floatInt(f)
		}
		return nil
	case float64:
		return floatInt(x)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return &i
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return floatInt(f)
		}
		return nil
	default:
		return nil
	}
}

// floatInt truncates f, or returns nil when f has no int value.
func floatInt(f float64) *int {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int(f)
	return &n
}

func stringField(v any, ok bool) string {
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	}
	return ""
}
