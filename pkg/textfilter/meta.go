package textfilter

import (
	"regexp"
	"strings"
)

// stateBlock matches fenced blocks tagged as json. Untagged fences are left
// alone since they may be part of the story (songs, letters, inscriptions).
var stateBlock = regexp.MustCompile("(?is)```json.*?```")

// metaPatterns match whole lines in which the narrator talks about the state
// block instead of the story.
var metaPatterns = map[string]*regexp.Regexp{
	"intro_en":   regexp.MustCompile(`(?im)^[ \t]*(here is|here's|below is)\b[^\n]*\b(json|state|stats|status|sheet)\b[^\n]*:[ \t]*$`),
	"intro_pt":   regexp.MustCompile(`(?im)^[ \t]*(aqui est[aá]|segue|abaixo est[aá])[ \t,][^\n]*\b(json|estado|status|ficha)\b[^\n]*:[ \t]*$`),
	"label_en":   regexp.MustCompile(`(?im)^[ \t]*\(?[ \t]*(updated|current|new)[ \t]+(player[ \t]+|character[ \t]+)?(state|status|stats|json)[ \t]*\)?[ \t]*[:.]?[ \t]*$`),
	"label_pt":   regexp.MustCompile(`(?im)^[ \t]*\(?[ \t]*(estado|json|status|ficha)[ \t]+(atualizad[oa]|atual|do jogador)[ \t]*\)?[ \t]*[:.]?[ \t]*$`),
	"state_json": regexp.MustCompile(`(?im)^[ \t]*(\*\*)?json(\*\*)?[ \t]*:?[ \t]*$`),
}

var blankRuns = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)

// MetaFilter strips the structured state block and the narrator's
// commentary about it from text shown to the player.
type MetaFilter struct {
	patterns []*regexp.Regexp
}

// NewMetaFilter creates a filter with the built-in patterns.
func NewMetaFilter() *MetaFilter {
	mf := &MetaFilter{}
	for _, name := range []string{"intro_en", "intro_pt", "label_en", "label_pt", "state_json"} {
		mf.patterns = append(mf.patterns, metaPatterns[name])
	}
	return mf
}

// Clean removes json fences and meta-commentary lines, collapses the blank
// lines they leave behind and trims the result.
func (mf *MetaFilter) Clean(text string) string {
	result := stateBlock.ReplaceAllString(text, "")
	for _, re := range mf.patterns {
		result = re.ReplaceAllString(result, "")
	}
	result = blankRuns.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// ContainsMeta reports whether text has anything Clean would remove.
func (mf *MetaFilter) ContainsMeta(text string) bool {
	if stateBlock.MatchString(text) {
		return true
	}
	for _, re := range mf.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
