package character

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Item is one inventory entry. A nil Bonuses map means the provider never
// annotated the item; an empty non-nil map means it explicitly has none.
type Item struct {
	Name        string                `json:"name"`
	Quantity    int                   `json:"quantity"`
	Description string                `json:"description,omitempty"`
	Bonuses     map[string]BonusValue `json:"bonuses"`
}

// BonusValue is a bonus magnitude as the provider wrote it: either a bare
// number or a string such as "+2 to strength when worn".
type BonusValue string

var leadingInt = regexp.MustCompile(`^[+\-]?\d+`)

// Magnitude parses the leading signed integer. Anything without one is 0.
func (b BonusValue) Magnitude() int {
	m := leadingInt.FindString(strings.TrimSpace(string(b)))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// UnmarshalJSON accepts numbers and strings. Other JSON kinds decode to an
// empty value instead of failing the surrounding document.
func (b *BonusValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*b = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BonusValue(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*b = BonusValue(string(data))
	default:
		*b = ""
	}
	return nil
}

// MarshalJSON writes plain integers back as numbers.
func (b BonusValue) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(b)); err == nil {
		return []byte(b), nil
	}
	return json.Marshal(string(b))
}

// FindItem returns the index of the first item with the given name, or -1.
func FindItem(items []Item, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

// CloneBonuses copies a bonus map, preserving nil.
func CloneBonuses(m map[string]BonusValue) map[string]BonusValue {
	if m == nil {
		return nil
	}
	out := make(map[string]BonusValue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
