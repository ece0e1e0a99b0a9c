package prompts

import (
	"fmt"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// DefaultHistoryLimit is how many history messages go into a prompt.
const DefaultHistoryLimit = 20

// Builder constructs chat messages for LLM interaction using a fluent interface.
type Builder struct {
	character     *character.Character
	history       []chat.ChatMessage
	userMessage   string
	userRole      string
	passiveNotice string
	historyLimit  int
	messages      []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: DefaultHistoryLimit,
		userRole:     chat.ChatRoleUser,
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithCharacter sets the character whose sheet drives the prompt.
func (b *Builder) WithCharacter(c *character.Character) *Builder {
	b.character = c
	return b
}

// WithHistory sets the stored conversation, oldest first.
func (b *Builder) WithHistory(history []chat.ChatMessage) *Builder {
	b.history = history
	return b
}

// WithUserMessage sets the user's message and role.
func (b *Builder) WithUserMessage(message string, role string) *Builder {
	b.userMessage = message
	b.userRole = role
	return b
}

// WithPassiveNotice tells the narrator about passive effects applied this turn.
func (b *Builder) WithPassiveNotice(notice string) *Builder {
	b.passiveNotice = notice
	return b
}

// WithHistoryLimit sets the chat history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.character == nil {
		return nil, fmt.Errorf("character is required")
	}

	// Reset messages
	b.messages = make([]chat.ChatMessage, 0)

	// 1. System prompt with the sheet
	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}

	// 2. Windowed chat history
	b.addHistory()

	// 3. Passive effects, before the user speaks
	b.addPassiveNotice()

	// 4. User message
	b.addUserMessage()

	// 5. Final reminders
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: UserPostPrompt,
	})

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder
	sb.WriteString(BuildSystemPrompt(b.character))

	statePrompt, err := GetStatePrompt(b.character)
	if err != nil {
		return fmt.Errorf("error generating state prompt: %w", err)
	}
	sb.WriteString("\n\n" + statePrompt.Content)

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

// addHistory adds windowed chat history to the message array.
func (b *Builder) addHistory() {
	if len(b.history) == 0 || b.historyLimit <= 0 {
		return
	}
	if len(b.history) <= b.historyLimit {
		b.messages = append(b.messages, b.history...)
	} else {
		b.messages = append(b.messages, b.history[len(b.history)-b.historyLimit:]...)
	}
}

func (b *Builder) addPassiveNotice() {
	if b.passiveNotice == "" {
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf(PassivePromptTemplate, b.passiveNotice),
	})
}

func (b *Builder) addUserMessage() {
	if b.userMessage == "" {
		return
	}
	content := b.userMessage
	if b.userRole == chat.ChatRoleUser {
		content = chat.FormatWithName(content, b.character.Name)
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    b.userRole,
		Content: content,
	})
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(
	c *character.Character,
	history []chat.ChatMessage,
	message string,
	passiveNotice string,
	historyLimit int,
) ([]chat.ChatMessage, error) {
	return New().
		WithCharacter(c).
		WithHistory(history).
		WithPassiveNotice(passiveNotice).
		WithUserMessage(message, chat.ChatRoleUser).
		WithHistoryLimit(historyLimit).
		Build()
}
