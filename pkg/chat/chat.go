package chat

import (
	"fmt"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
)

// MaxMessageLength is the longest player message accepted for one turn.
const MaxMessageLength = 2000

// TurnRequest is one player message addressed to a campaign.
type TurnRequest struct {
	PlayerID   string `json:"player_id"`
	CampaignID string `json:"campaign_id"`
	Message    string `json:"message"`
}

// Key returns the character the turn is for.
func (tr *TurnRequest) Key() character.Key {
	return character.Key{PlayerID: tr.PlayerID, CampaignID: tr.CampaignID}
}

// Validate checks the request before it is queued.
func (tr *TurnRequest) Validate() error {
	if err := tr.Key().Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if len(tr.Message) > MaxMessageLength {
		return fmt.Errorf("message exceeds maximum length of %d characters", MaxMessageLength)
	}
	return nil
}

// TurnResponse is what the player sees after a turn: the cleaned narrative
// followed by any side messages, already joined in Message.
type TurnResponse struct {
	RequestID string   `json:"request_id,omitempty"`
	Message   string   `json:"message"`
	Narrative string   `json:"narrative,omitempty"`
	Notices   []string `json:"notices,omitempty"`
	Changed   bool     `json:"changed"`
	Command   string   `json:"command,omitempty"` // set when the turn was a command, not narration
}

// ChatResponse is a single completion from a narrative provider.
type ChatResponse struct {
	Message string `json:"message"`
}

const (
	ChatRoleUser   = "user"      // player
	ChatRoleAgent  = "assistant" // narrator
	ChatRoleSystem = "system"    // instructions
)

// ChatMessage represents a single chat message in the conversation
// sent to the narrative provider.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}
