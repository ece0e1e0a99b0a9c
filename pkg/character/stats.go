package character

// Canonical attribute keys.
const (
	AttrStrength     = "strength"
	AttrDexterity    = "dexterity"
	AttrConstitution = "constitution"
	AttrIntelligence = "intelligence"
	AttrWisdom       = "wisdom"
	AttrCharisma     = "charisma"
)

// AttributeNames lists the six ability scores in display order.
var AttributeNames = []string{
	AttrStrength,
	AttrDexterity,
	AttrConstitution,
	AttrIntelligence,
	AttrWisdom,
	AttrCharisma,
}

// Stats represents the six base ability scores
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// DefaultStats returns a flat 10 in every ability.
func DefaultStats() Stats {
	return Stats{10, 10, 10, 10, 10, 10}
}

// ToAttributes converts Stats to a map keyed by canonical attribute name
func (s Stats) ToAttributes() map[string]int {
	return map[string]int{
		AttrStrength:     s.Strength,
		AttrDexterity:    s.Dexterity,
		AttrConstitution: s.Constitution,
		AttrIntelligence: s.Intelligence,
		AttrWisdom:       s.Wisdom,
		AttrCharisma:     s.Charisma,
	}
}

// Get returns the score for a canonical attribute key.
func (s Stats) Get(attr string) (int, bool) {
	v, ok := s.ToAttributes()[attr]
	return v, ok
}

// Set overwrites one ability score. Only generation and admin overrides call it.
func (s *Stats) Set(attr string, value int) bool {
	switch attr {
	case AttrStrength:
		s.Strength = value
	case AttrDexterity:
		s.Dexterity = value
	case AttrConstitution:
		s.Constitution = value
	case AttrIntelligence:
		s.Intelligence = value
	case AttrWisdom:
		s.Wisdom = value
	case AttrCharisma:
		s.Charisma = value
	default:
		return false
	}
	return true
}

// Modifier returns the d20-style modifier for a score: floor((score-10)/2).
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}
