package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/guialv3s/InfinityAIRPG/internal/services/events"
	"github.com/redis/go-redis/v9"
)

const eventsPrefix = "/v1/events/"

// keepaliveInterval is how often an idle stream gets a comment line.
var keepaliveInterval = 30 * time.Second

// EventsHandler handles Server-Sent Events (SSE) for one character's turns
type EventsHandler struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(redisClient *redis.Client, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		redisClient: redisClient,
		logger:      logger,
	}
}

// ServeHTTP handles GET /v1/events/{player}/{campaign}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	key, action, err := parseKey(r.URL.Path, eventsPrefix)
	if err != nil || action != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/{player}/{campaign}")
		return
	}

	h.logger.Info("SSE connection established",
		"character", key.String(),
		"remote_addr", r.RemoteAddr)

	// Subscribe before the headers go out so no event is missed
	channel := events.Channel(key)
	pubsub := h.redisClient.Subscribe(r.Context(), channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe", "error", err, "channel", channel)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event stream unavailable.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	msgChan := pubsub.Channel()

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]interface{}{
		"character_id": key.String(),
		"message":      "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "character", key.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			data := event.Data
			if data == nil {
				data = map[string]interface{}{}
			}
			if event.RequestID != "" {
				data["request_id"] = event.RequestID
			}
			h.sendSSE(w, string(event.Type), data)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("Failed to write event type", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(dataJSON)); err != nil {
		h.logger.Error("Failed to write event data", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
