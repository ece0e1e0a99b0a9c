package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name            string
		storageErr      error
		queueErr        error
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
		expectedQueue   string
	}{
		{
			name:            "all healthy",
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
			expectedQueue:   "healthy",
		},
		{
			name:            "unhealthy storage",
			storageErr:      errors.New("connection failed"),
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
			expectedQueue:   "healthy",
		},
		{
			name:            "unhealthy queue",
			queueErr:        errors.New("connection failed"),
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "healthy",
			expectedQueue:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			store.SetPingError(tt.storageErr)
			queueErr := tt.queueErr
			handler := NewHealthHandler(map[string]Pinger{
				"storage": store,
				"queue":   pingFunc(func(ctx context.Context) error { return queueErr }),
			}, testLogger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var response HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedHealth, response.Status)
			assert.Equal(t, "infinity-rpg", response.Service)
			assert.Equal(t, tt.expectedStorage, response.Components["storage"])
			assert.Equal(t, tt.expectedQueue, response.Components["queue"])
			assert.False(t, response.Timestamp.IsZero())
		})
	}
}
