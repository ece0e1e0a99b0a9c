package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

// ErrorResponse matches the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CharacterResponse matches GET /v1/character/{player}/{campaign}.
type CharacterResponse struct {
	Character *character.Character `json:"character"`
	Sheet     string               `json:"sheet"`
}

// CreateCharacterRequest matches the API create body.
type CreateCharacterRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Race  string `json:"race"`
	Theme string `json:"theme"`
	Mode  string `json:"mode"`
}

// QueuedResponse is the 202 body for queued requests.
type QueuedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func characterURL(baseURL string, key character.Key) string {
	return fmt.Sprintf("%s/v1/character/%s/%s", baseURL, key.PlayerID, key.CampaignID)
}

// apiError turns a non-success response body into an error.
func apiError(action string, status int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("failed to %s: %s", action, errorResp.Error)
}

// getCharacter returns nil, nil when the character does not exist yet.
func getCharacter(client *http.Client, baseURL string, key character.Key) (*CharacterResponse, error) {
	resp, err := client.Get(characterURL(baseURL, key))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, apiError("get character", resp.StatusCode, body)
	}

	var cr CharacterResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("failed to parse character response: %w", err)
	}
	return &cr, nil
}

func createCharacter(client *http.Client, baseURL string, key character.Key, req CreateCharacterRequest) (*CharacterResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(characterURL(baseURL, key), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("create character", resp.StatusCode, body)
	}

	var cr CharacterResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("failed to parse character response: %w", err)
	}
	return &cr, nil
}

// sendTurn queues a message and returns its request ID.
func sendTurn(client *http.Client, baseURL string, key character.Key, message string) (string, error) {
	jsonData, err := json.Marshal(chat.TurnRequest{
		PlayerID:   key.PlayerID,
		CampaignID: key.CampaignID,
		Message:    message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/turn", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", apiError("send turn", resp.StatusCode, body)
	}

	var queued QueuedResponse
	if err := json.Unmarshal(body, &queued); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return queued.RequestID, nil
}

// listenToSSE connects to the character's event stream and forwards events
// until ctx ends or the stream closes.
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, key character.Key, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/%s/%s", baseURL, key.PlayerID, key.CampaignID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	return readSSE(ctx, resp.Body, eventChan)
}

func readSSE(ctx context.Context, r io.Reader, eventChan chan<- SSEEvent) error {
	scanner := bufio.NewScanner(r)
	var currentEvent SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				select {
				case eventChan <- currentEvent:
				case <-ctx.Done():
					return ctx.Err()
				}
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			var data map[string]interface{}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
