package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatWithName(t *testing.T) {
	tests := []struct {
		name    string
		message string
		who     string
		want    string
	}{
		{"plain action", "I draw my dagger.", "Aria", "Aria: I draw my dagger."},
		{"already prefixed", "Aria: I hide.", "Aria", "Aria: I hide."},
		{"speaking to an npc", "Innkeeper: a room, please", "Borin", "Innkeeper: a room, please"},
		{"colon late in sentence", "I count the coins on the table and say the total is: twelve", "Aria", "Aria: I count the coins on the table and say the total is: twelve"},
		{"colon after newline", "look\nat: this", "Aria", "Aria: look\nat: this"},
		{"no name", "I wait.", "  ", "I wait."},
		{"empty message", "", "Aria", "Aria: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWithName(tt.message, tt.who))
		})
	}
}
