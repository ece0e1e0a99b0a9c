package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
)

// TurnHandler queues player messages for the worker.
type TurnHandler struct {
	queue    RequestQueue
	notifier QueueNotifier
	logger   *slog.Logger
}

// NewTurnHandler creates a turn handler. notifier may be nil.
func NewTurnHandler(q RequestQueue, notifier QueueNotifier, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		queue:    q,
		notifier: notifier,
		logger:   logger,
	}
}

// ServeHTTP handles POST /v1/turn
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'player_id', 'campaign_id' and 'message' fields.")
		return
	}
	if err := request.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	enqueue(w, r, h.queue, h.notifier, h.logger, queue.NewTurnRequest(request.Key(), request.Message))
}
