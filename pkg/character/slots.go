package character

import (
	"sort"
	"strconv"
)

// Slot is the state of one spell circle.
type Slot struct {
	Total int `json:"total"`
	Used  int `json:"used"`
}

// Remaining returns the unused slots of the circle.
func (s Slot) Remaining() int {
	if s.Used >= s.Total {
		return 0
	}
	return s.Total - s.Used
}

// SlotPool maps circle number ("1".."9") to its slot state.
type SlotPool map[string]Slot

// Clone returns an independent copy of the pool, preserving nil.
func (p SlotPool) Clone() SlotPool {
	if p == nil {
		return nil
	}
	out := make(SlotPool, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Circles returns the circle keys sorted numerically.
func (p SlotPool) Circles() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}
