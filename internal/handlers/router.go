package handlers

import (
	"log/slog"
	"net/http"
	"time"
)

// Router holds the handlers served by the API.
type Router struct {
	Health    http.Handler
	Turn      http.Handler
	Character http.Handler
	Events    http.Handler
}

// NewMux registers the API routes. Nil handlers are skipped.
func NewMux(rt Router, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	if rt.Health != nil {
		mux.Handle("/health", rt.Health)
	}
	if rt.Turn != nil {
		mux.Handle("/v1/turn", rt.Turn)
	}
	if rt.Character != nil {
		mux.Handle(characterPrefix, rt.Character)
	}
	if rt.Events != nil {
		mux.Handle(eventsPrefix, rt.Events)
	}
	return LogRequests(mux, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LogRequests logs method, path, status and duration of each request.
func LogRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
