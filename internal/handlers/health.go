package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	components map[string]Pinger
	logger     *slog.Logger
}

// NewHealthHandler creates a health handler probing each named component.
func NewHealthHandler(components map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		components: components,
		logger:     logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.components))
	overallStatus := "healthy"

	for name, p := range h.components {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", "component", name, "error", err)
			components[name] = "unhealthy"
			overallStatus = "degraded"
			continue
		}
		components[name] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "infinity-rpg",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
