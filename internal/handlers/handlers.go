package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// QueuedResponse is returned for requests handed to the worker.
type QueuedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// RequestQueue accepts requests for the worker.
type RequestQueue interface {
	EnqueueRequest(ctx context.Context, req *queue.Request) error
}

// QueueNotifier announces queued requests to event subscribers.
type QueueNotifier interface {
	PublishRequestQueued(ctx context.Context, key character.Key, requestID string, requestType string) error
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// parseKey reads "{player}/{campaign}[/action]" after prefix.
func parseKey(path, prefix string) (character.Key, string, error) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return character.Key{}, "", fmt.Errorf("expected %s{player}/{campaign}", prefix)
	}
	key := character.Key{PlayerID: parts[0], CampaignID: parts[1]}
	if err := key.Validate(); err != nil {
		return character.Key{}, "", err
	}
	action := ""
	if len(parts) == 3 {
		action = parts[2]
	}
	return key, action, nil
}

// enqueue hands req to the worker and answers 202.
func enqueue(w http.ResponseWriter, r *http.Request, q RequestQueue, notifier QueueNotifier, logger *slog.Logger, req *queue.Request) {
	if err := q.EnqueueRequest(r.Context(), req); err != nil {
		logger.Error("Failed to enqueue request", "error", err, "request_id", req.RequestID)
		writeError(w, logger, http.StatusInternalServerError, "Failed to queue request.")
		return
	}
	if notifier != nil {
		if err := notifier.PublishRequestQueued(r.Context(), req.Key(), req.RequestID, string(req.Type)); err != nil {
			logger.Warn("Failed to publish queued event", "error", err)
		}
	}
	logger.Info("Request queued",
		"request_id", req.RequestID,
		"type", req.Type,
		"character", req.Key().String())
	writeJSON(w, logger, http.StatusAccepted, QueuedResponse{RequestID: req.RequestID, Status: "queued"})
}
