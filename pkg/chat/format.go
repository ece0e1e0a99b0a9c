package chat

import "strings"

// maxSpeakerLength bounds what is treated as a "Name:" prefix.
const maxSpeakerLength = 30

// FormatWithName prefixes a player message with the acting character's name.
// Messages that already open with a short "Speaker:" prefix are left alone,
// as are empty names.
func FormatWithName(message, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return message
	}
	if i := strings.Index(message, ":"); i > 0 && i <= maxSpeakerLength && !strings.Contains(message[:i], "\n") {
		return message
	}
	return name + ": " + message
}
