package rules

import "github.com/guialv3s/InfinityAIRPG/pkg/textfilter"

const (
	baseXPThreshold = 100
	xpPerLevel      = 50
)

// XPToNextLevel is the experience needed to go from level to level+1.
func XPToNextLevel(level int) int {
	if level < 0 {
		level = 0
	}
	return baseXPThreshold + xpPerLevel*level
}

// folded keywords
var (
	noMagicThemes = []string{
		"zumbi", "zombie", "apocalipse", "apocalypse", "realista", "realistic",
		"segunda guerra", "world war", "ww2", "velho oeste", "wild west",
		"cyberpunk", "sci-fi", "scifi",
	}
	magicOverrides = []string{"magia", "magic", "rpg", "d&d", "fantasy", "fantasia"}
)

// MagicAllowed reports whether a campaign theme admits spellcasting.
// Grounded settings (zombies, wild west, cyberpunk...) disable magic unless
// the theme also names magic or fantasy explicitly.
func MagicAllowed(theme string) bool {
	t := textfilter.Fold(theme)
	if textfilter.ContainsAny(t, magicOverrides...) {
		return true
	}
	return !textfilter.ContainsAny(t, noMagicThemes...)
}
