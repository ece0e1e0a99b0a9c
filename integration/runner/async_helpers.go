package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// TurnTimeout is max time to wait for a queued request to finish
const TurnTimeout = 60 * time.Second

// ErrTimeout is returned when a request does not finish in time.
var ErrTimeout = errors.New("timeout waiting for request completion")

// QueuedResponse is the 202 body of the turn and admin endpoints
type QueuedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// CharacterResponse is the body of GET /v1/character
type CharacterResponse struct {
	Character *character.Character `json:"character"`
	Sheet     string               `json:"sheet"`
}

// Event is one server-sent event.
type Event struct {
	Type string
	Data map[string]json.RawMessage
}

// EventStream is an open SSE connection for one character.
type EventStream struct {
	events chan Event
	cancel context.CancelFunc
}

func characterURL(baseURL string, key character.Key) string {
	return fmt.Sprintf("%s/v1/character/%s/%s", baseURL, key.PlayerID, key.CampaignID)
}

func postJSON(ctx context.Context, client *http.Client, url string, body interface{}, wantStatus int) ([]byte, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("%s returned %d (expected %d): %s", url, resp.StatusCode, wantStatus, string(data))
	}
	return data, nil
}

// CreateCharacter creates the character for a run.
func CreateCharacter(ctx context.Context, client *http.Client, baseURL string, key character.Key, seed SeedCharacter) error {
	_, err := postJSON(ctx, client, characterURL(baseURL, key), seed, http.StatusCreated)
	return err
}

// PostTurnAsync queues a turn and returns its request_id
func PostTurnAsync(ctx context.Context, client *http.Client, baseURL string, key character.Key, message string) (string, error) {
	data, err := postJSON(ctx, client, baseURL+"/v1/turn", chat.TurnRequest{
		PlayerID:   key.PlayerID,
		CampaignID: key.CampaignID,
		Message:    message,
	}, http.StatusAccepted)
	if err != nil {
		return "", err
	}
	var queued QueuedResponse
	if err := json.Unmarshal(data, &queued); err != nil {
		return "", fmt.Errorf("failed to parse turn response: %w", err)
	}
	return queued.RequestID, nil
}

// PostAdminAsync queues an admin level override and returns its request_id
func PostAdminAsync(ctx context.Context, client *http.Client, baseURL string, key character.Key, level int) (string, error) {
	data, err := postJSON(ctx, client, characterURL(baseURL, key)+"/admin",
		map[string]interface{}{"level": level}, http.StatusAccepted)
	if err != nil {
		return "", err
	}
	var queued QueuedResponse
	if err := json.Unmarshal(data, &queued); err != nil {
		return "", fmt.Errorf("failed to parse admin response: %w", err)
	}
	return queued.RequestID, nil
}

// GetCharacter retrieves the current character
func GetCharacter(ctx context.Context, client *http.Client, baseURL string, key character.Key) (*character.Character, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, characterURL(baseURL, key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create character request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send character request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("character endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var cr CharacterResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("failed to decode character: %w", err)
	}
	if cr.Character == nil {
		return nil, fmt.Errorf("character endpoint returned no character")
	}
	return cr.Character, nil
}

// OpenEventStream subscribes to the character's events. Open it before
// queueing a request so its completion cannot be missed.
func OpenEventStream(ctx context.Context, baseURL string, key character.Key) (*EventStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	url := fmt.Sprintf("%s/v1/events/%s/%s", baseURL, key.PlayerID, key.CampaignID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create SSE request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// no client timeout: the stream stays open for the whole suite
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to SSE: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	s := &EventStream{events: make(chan Event, 16), cancel: cancel}
	go func() {
		defer func() { _ = resp.Body.Close() }()
		defer close(s.events)
		_ = ReadEvents(ctx, resp.Body, s.events)
	}()
	return s, nil
}

// Close ends the stream.
func (s *EventStream) Close() {
	s.cancel()
}

// WaitFor blocks until the request completes or fails. A failed request is
// returned as an error; a completed one yields its turn result.
func (s *EventStream) WaitFor(ctx context.Context, requestID string, timeout time.Duration) (*chat.TurnResponse, error) {
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("%w (waited %v)", ErrTimeout, timeout)
		case ev, ok := <-s.events:
			if !ok {
				return nil, fmt.Errorf("event stream closed before request %s finished", requestID)
			}
			if ev.requestID() != requestID {
				continue
			}
			switch ev.Type {
			case "request.completed":
				var resp chat.TurnResponse
				if raw, ok := ev.Data["result"]; ok {
					if err := json.Unmarshal(raw, &resp); err != nil {
						return nil, fmt.Errorf("failed to parse turn result: %w", err)
					}
				}
				return &resp, nil
			case "request.failed":
				var msg string
				_ = json.Unmarshal(ev.Data["error"], &msg)
				return nil, fmt.Errorf("request %s failed: %s", requestID, msg)
			}
		}
	}
}

func (e Event) requestID() string {
	var id string
	_ = json.Unmarshal(e.Data["request_id"], &id)
	return id
}

// ReadEvents parses an SSE body into events until it ends.
func ReadEvents(ctx context.Context, r io.Reader, out chan<- Event) error {
	scanner := bufio.NewScanner(r)
	var current Event

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Type != "" {
				select {
				case out <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			current = Event{}
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			_ = json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.Data)
		}
	}
	return scanner.Err()
}
