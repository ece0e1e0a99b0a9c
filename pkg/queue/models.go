package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeTurn is a player message: narration or a ! command
	RequestTypeTurn RequestType = "turn"

	// RequestTypeAdmin is an administrative level or attribute override
	RequestTypeAdmin RequestType = "admin"

	// RequestTypeDelete removes a character and its history
	RequestTypeDelete RequestType = "delete"
)

// AdminAction is an explicit override outside the narrative flow.
type AdminAction struct {
	Level      *int           `json:"level,omitempty"`
	Attributes map[string]int `json:"attributes,omitempty"`
}

// Request represents a unified request in the queue
type Request struct {
	RequestID  string      `json:"request_id"`
	Type       RequestType `json:"type"`
	PlayerID   string      `json:"player_id"`
	CampaignID string      `json:"campaign_id"`

	// Turn-specific fields
	Message string `json:"message,omitempty"`

	// Admin-specific fields
	Admin *AdminAction `json:"admin,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTurnRequest creates a turn request with a fresh ID.
func NewTurnRequest(key character.Key, message string) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypeTurn,
		PlayerID:   key.PlayerID,
		CampaignID: key.CampaignID,
		Message:    message,
		EnqueuedAt: time.Now().UTC(),
	}
}

// NewAdminRequest creates an admin request with a fresh ID.
func NewAdminRequest(key character.Key, action AdminAction) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypeAdmin,
		PlayerID:   key.PlayerID,
		CampaignID: key.CampaignID,
		Admin:      &action,
		EnqueuedAt: time.Now().UTC(),
	}
}

// NewDeleteRequest creates a delete request with a fresh ID.
func NewDeleteRequest(key character.Key) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypeDelete,
		PlayerID:   key.PlayerID,
		CampaignID: key.CampaignID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Key returns the character the request targets.
func (r *Request) Key() character.Key {
	return character.Key{PlayerID: r.PlayerID, CampaignID: r.CampaignID}
}

// UnmarshalJSON deserializes the request from JSON in Redis and rejects
// entries without an ID or character key.
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := (*Alias)(r)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if _, err := uuid.Parse(r.RequestID); err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	return r.Key().Validate()
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
