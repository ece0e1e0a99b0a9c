package delta

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	// fence matches a closed code fence with an optional language tag.
	fence = regexp.MustCompile("(?s)```([A-Za-z]*)[ \t]*\n?(.*?)```")
	// openJSONFence matches a json fence whose closing backticks never came,
	// typically because the narrator was cut off mid-block.
	openJSONFence = regexp.MustCompile("(?i)```json")
)

// Result is the outcome of one extraction.
type Result struct {
	// Delta is the decoded state block, or nil when none was usable.
	Delta *Delta
	// Nudge is the keyword fallback, set only when no block was found.
	Nudge *Nudge
	// Span covers the state block in the input, whether or not it decoded.
	Span Span
	// Fenced reports whether a state block was found at all.
	Fenced bool
	// Err records why a found block could not be decoded. It is
	// diagnostic only.
	Err error
}

// Extract looks for the first state block in text and decodes it. Only
// when there is no block at all does it fall back to the keyword heuristic.
// A block that does not decode yields neither Delta nor Nudge. Extract never
// fails.
func Extract(text string, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	body, span, found := firstStateBlock(text)
	if found {
		res.Fenced = true
		res.Span = span

		d, err := Decode([]byte(body))
		if err == nil {
			res.Delta = d
			if len(d.Ignored) > 0 {
				logger.Debug("Ignored unknown state keys", "keys", d.Ignored)
			}
			return res
		}
		res.Err = err
		logger.Warn("State block could not be decoded, leaving state unchanged",
			"error", err,
			"block_length", len(body))
		return res
	}

	res.Nudge = Heuristic(text)
	if res.Nudge != nil {
		logger.Debug("Keyword fallback produced a nudge", "nudge", res.Nudge)
	}
	return res
}

// firstStateBlock returns the content and span of the first fence that is
// either tagged json or untagged with an object or array body. Fences tagged
// with another language, and untagged prose, belong to the story.
func firstStateBlock(text string) (string, Span, bool) {
	for _, m := range fence.FindAllStringSubmatchIndex(text, -1) {
		tag := strings.ToLower(text[m[2]:m[3]])
		body := text[m[4]:m[5]]
		switch {
		case tag == "json":
		case tag == "" && looksStructured(body):
		default:
			continue
		}
		return body, Span{Start: m[0], End: m[1]}, true
	}

	// an unterminated json fence runs to the end of the text
	if loc := openJSONFence.FindStringIndex(text); loc != nil {
		if strings.Count(text[loc[0]:], "```") == 1 {
			return text[loc[1]:], Span{Start: loc[0], End: len(text)}, true
		}
	}
	return "", Span{}, false
}

func looksStructured(body string) bool {
	b := strings.TrimSpace(body)
	return strings.HasPrefix(b, "{") || strings.HasPrefix(b, "[")
}
