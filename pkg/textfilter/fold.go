package textfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips combining marks, so "Inteligência" and
// "inteligencia" compare equal.
func Fold(s string) string {
	// transformers carry state; build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// ContainsAny reports whether the folded text contains any of the keywords.
// Keywords are expected to already be folded.
func ContainsAny(folded string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}
