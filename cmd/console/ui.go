package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "Type your action, or !commands..."
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	character    *character.Character
	sheet        string
	history      []chat.ChatMessage
	events       <-chan SSEEvent
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	status       string

	// in-flight request, matched against SSE events
	loading   bool
	pendingID string

	lastNarrative string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnQueuedMsg struct {
	requestID string
	err       error
}

type characterMsg struct {
	resp *CharacterResponse
	err  error
}

type sseMsg struct {
	event SSEEvent
}

type sseClosedMsg struct{}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, cr *CharacterResponse, events <-chan SSEEvent) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	m := ConsoleUI{
		config:       cfg,
		client:       client,
		events:       events,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
	if cr != nil {
		m.character = cr.Character
		m.sheet = cr.Sheet
	}
	return m
}

func writeMetadata(c *character.Character, sheet string, campaignID string) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")
	content.WriteString("Campaign:\n" + campaignID + "\n\n")

	if c == nil {
		content.WriteString("No character loaded\n")
		return content.String()
	}
	if sheet != "" {
		content.WriteString(sheet + "\n")
	} else {
		content.WriteString(fmt.Sprintf("%s, level %d %s\n", c.Name, c.Level, c.Class))
		content.WriteString(fmt.Sprintf("HP %d/%d\n", c.Resources.Health, c.Resources.MaxHealth))
	}

	content.WriteString("\n")
	content.WriteString("Keys:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy last reply\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• !commands: Help\n")

	return content.String()
}

// writeChatContent rebuilds the chat log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("INFINITY RPG") + "\n\n")
	if m.character != nil {
		content.WriteString(fmt.Sprintf("You are %s. What do you do?\n\n", m.character.Name))
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, msg := range m.history {
		switch msg.Role {
		case chat.ChatRoleAgent:
			content.WriteString(formatNarratorResponse(msg.Content, chatWidth) + "\n\n")
		case chat.ChatRoleSystem:
			content.WriteString(noticeStyle.Render(wordwrap.String(msg.Content, chatWidth)) + "\n\n")
		case chat.ChatRoleUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
		}
	}

	if m.status != "" {
		content.WriteString(promptStyle.Render(m.status) + "\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events))
}

// waitForEvent reads the next SSE event as a tea message.
func waitForEvent(events <-chan SSEEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sseClosedMsg{}
		}
		return sseMsg{ev}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.character, m.sheet, m.config.CampaignID))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			m.status = copyToClipboard(m.lastNarrative)
			m.writeChatContent()
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.err = nil
			m.status = ""
			m.progressTick = 0
			m.history = append(m.history, chat.ChatMessage{Role: chat.ChatRoleUser, Content: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendTurn(input), progressTick())
		}

	case turnQueuedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
		} else {
			m.pendingID = msg.requestID
			m.status = "Queued..."
		}
		m.writeChatContent()
		return m, nil

	case sseMsg:
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case sseClosedMsg:
		m.err = fmt.Errorf("event stream closed; restart the console to reconnect")
		m.loading = false
		m.writeChatContent()
		return m, nil

	case characterMsg:
		if msg.err == nil && msg.resp != nil {
			m.character = msg.resp.Character
			m.sheet = msg.resp.Sheet
			m.metaViewport.SetContent(writeMetadata(m.character, m.sheet, m.config.CampaignID))
			m.writeChatContent()
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleEvent applies one SSE event to the model. Events for other requests
// only matter when they change the character.
func (m *ConsoleUI) handleEvent(ev SSEEvent) tea.Cmd {
	requestID, _ := ev.Data["request_id"].(string)
	mine := m.pendingID != "" && requestID == m.pendingID

	switch ev.Type {
	case "request.processing":
		if mine {
			m.status = "The narrator is thinking..."
			m.writeChatContent()
		}
	case "request.completed":
		if !mine {
			return nil
		}
		m.loading = false
		m.pendingID = ""
		m.status = ""
		if resp := parseTurnResult(ev.Data["result"]); resp != nil {
			m.appendResponse(resp)
		}
		m.writeChatContent()
		return m.refreshCharacter()
	case "request.failed":
		if !mine {
			return nil
		}
		m.loading = false
		m.pendingID = ""
		m.status = ""
		errMsg, _ := ev.Data["error"].(string)
		m.err = fmt.Errorf("request failed: %s", errMsg)
		m.writeChatContent()
	case "character.updated":
		return m.refreshCharacter()
	}
	return nil
}

func (m *ConsoleUI) appendResponse(resp *chat.TurnResponse) {
	text := resp.Narrative
	if text == "" {
		text = resp.Message
	}
	if text != "" {
		m.history = append(m.history, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: text})
		m.lastNarrative = text
	}
	for _, notice := range resp.Notices {
		m.history = append(m.history, chat.ChatMessage{Role: chat.ChatRoleSystem, Content: notice})
	}
}

// parseTurnResult decodes the result field of a request.completed event.
func parseTurnResult(raw interface{}) *chat.TurnResponse {
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	resp := &chat.TurnResponse{}
	resp.Message, _ = fields["message"].(string)
	resp.Narrative, _ = fields["narrative"].(string)
	resp.Command, _ = fields["command"].(string)
	resp.Changed, _ = fields["changed"].(bool)
	if notices, ok := fields["notices"].([]interface{}); ok {
		for _, n := range notices {
			if s, ok := n.(string); ok {
				resp.Notices = append(resp.Notices, s)
			}
		}
	}
	// command replies carry everything in Message
	if resp.Command != "" {
		resp.Narrative = ""
		resp.Notices = nil
	}
	return resp
}

func copyToClipboard(text string) string {
	if text == "" {
		return "Nothing to copy yet."
	}
	if err := clipboard.WriteAll(text); err != nil {
		return "Clipboard unavailable: " + err.Error()
	}
	return "Copied the last reply to the clipboard."
}

func formatNarratorResponse(response string, width int) string {
	// Check if response already has a speaker prefix
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		wrapWidth = width - len(AgentName+": ")
	}
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	lines := strings.Split(wordwrap.String(response, wrapWidth), "\n")
	formattedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}
	return result
}

func (m ConsoleUI) sendTurn(message string) tea.Cmd {
	return func() tea.Msg {
		id, err := sendTurn(m.client, m.config.APIBaseURL, m.config.Key(), message)
		return turnQueuedMsg{id, err}
	}
}

func (m ConsoleUI) refreshCharacter() tea.Cmd {
	return func() tea.Msg {
		cr, err := getCharacter(m.client, m.config.APIBaseURL, m.config.Key())
		return characterMsg{cr, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sseMsg:
		// keep draining the stream behind the modal
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your character is saved. Leave the adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
