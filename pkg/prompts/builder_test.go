package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

func testCharacter(mode character.Mode) *character.Character {
	c := character.New(character.Key{PlayerID: "p1", CampaignID: "c1"}, "Aria", "Wizard", "Elf", "dark fantasy", mode)
	c.TotalExperience = 340
	c.Experience = 90
	c.Level = 2
	return c
}

func history(n int) []chat.ChatMessage {
	h := make([]chat.ChatMessage, n)
	for i := range h {
		role := chat.ChatRoleUser
		if i%2 == 1 {
			role = chat.ChatRoleAgent
		}
		h[i] = chat.ChatMessage{Role: role, Content: fmt.Sprintf("message %d", i)}
	}
	return h
}

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.historyLimit != DefaultHistoryLimit {
		t.Errorf("Expected default history limit of %d, got %d", DefaultHistoryLimit, builder.historyLimit)
	}
	if builder.userRole != chat.ChatRoleUser {
		t.Errorf("Expected default role %q, got %q", chat.ChatRoleUser, builder.userRole)
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	c := testCharacter(character.ModeNarrative)
	h := history(2)

	builder := New().
		WithCharacter(c).
		WithHistory(h).
		WithUserMessage("Hello", chat.ChatRoleUser).
		WithPassiveNotice("healed").
		WithHistoryLimit(10)

	if builder.character != c {
		t.Error("WithCharacter did not set character")
	}
	if len(builder.history) != 2 {
		t.Error("WithHistory did not set history")
	}
	if builder.userMessage != "Hello" {
		t.Error("WithUserMessage did not set message")
	}
	if builder.passiveNotice != "healed" {
		t.Error("WithPassiveNotice did not set notice")
	}
	if builder.historyLimit != 10 {
		t.Error("WithHistoryLimit did not set limit")
	}
}

func TestBuilder_Build_RequiresCharacter(t *testing.T) {
	_, err := New().Build()
	if err == nil {
		t.Fatal("Expected error when character is not set")
	}
	if err.Error() != "character is required" {
		t.Errorf("Expected 'character is required' error, got: %v", err)
	}
}

func TestBuilder_Build_MessageOrder(t *testing.T) {
	msgs, err := New().
		WithCharacter(testCharacter(character.ModeNarrative)).
		WithHistory(history(4)).
		WithPassiveNotice("❤️ Extreme Regeneration: +15 HP").
		WithUserMessage("I open the door", chat.ChatRoleUser).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// system, 4 history, passive, user, post prompt
	if len(msgs) != 8 {
		t.Fatalf("Expected 8 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.ChatRoleSystem {
		t.Errorf("First message should be system, got %s", msgs[0].Role)
	}
	if msgs[1].Content != "message 0" || msgs[4].Content != "message 3" {
		t.Error("History not copied in order")
	}
	if !strings.Contains(msgs[5].Content, "Extreme Regeneration") || msgs[5].Role != chat.ChatRoleSystem {
		t.Errorf("Expected passive notice before user message, got %+v", msgs[5])
	}
	if msgs[6].Content != "Aria: I open the door" || msgs[6].Role != chat.ChatRoleUser {
		t.Errorf("Unexpected user message %+v", msgs[6])
	}
	if msgs[7].Content != UserPostPrompt {
		t.Error("Last message should be the post prompt")
	}
}

func TestBuilder_Build_HistoryWindow(t *testing.T) {
	msgs, err := New().
		WithCharacter(testCharacter(character.ModeNarrative)).
		WithHistory(history(30)).
		WithHistoryLimit(5).
		WithUserMessage("go", chat.ChatRoleUser).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// system, 5 history, user, post prompt
	if len(msgs) != 8 {
		t.Fatalf("Expected 8 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "message 25" {
		t.Errorf("Expected window to start at message 25, got %q", msgs[1].Content)
	}
}

func TestBuilder_Build_OmitsEmptyParts(t *testing.T) {
	msgs, err := New().WithCharacter(testCharacter(character.ModeNarrative)).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("Expected system and post prompt only, got %d messages", len(msgs))
	}
}

func TestBuilder_Build_SystemPromptContent(t *testing.T) {
	tests := []struct {
		name     string
		mode     character.Mode
		contains []string
		excludes []string
	}{
		{
			name:     "narrative",
			mode:     character.ModeNarrative,
			contains: []string{"Aria (Elf Wizard)", "dark fantasy", "pure storytelling", `"mana": 50`, `"experience": 340`},
			excludes: []string{"\"spell_slots\": {\n"},
		},
		{
			name:     "dice",
			mode:     character.ModeDice,
			contains: []string{"freeform with dice"},
		},
		{
			name:     "strict",
			mode:     character.ModeStrict,
			contains: []string{"rules-strict", "There is NO mana"},
			excludes: []string{`"mana": 50`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := New().WithCharacter(testCharacter(tt.mode)).Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			system := msgs[0].Content
			for _, want := range tt.contains {
				if !strings.Contains(system, want) {
					t.Errorf("system prompt missing %q", want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(system, unwanted) {
					t.Errorf("system prompt should not contain %q", unwanted)
				}
			}
		})
	}
}

func TestBuildMessages(t *testing.T) {
	msgs, err := BuildMessages(testCharacter(character.ModeNarrative), history(3), "look around", "", 2)
	if err != nil {
		t.Fatalf("BuildMessages() error = %v", err)
	}
	// system, 2 history, user, post prompt
	if len(msgs) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(msgs))
	}
	if msgs[3].Content != "Aria: look around" {
		t.Errorf("Expected user message at index 3, got %q", msgs[3].Content)
	}
}
