package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/leveling"
	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
	"github.com/guialv3s/InfinityAIRPG/pkg/rules"
	"github.com/guialv3s/InfinityAIRPG/pkg/sheet"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
)

const characterPrefix = "/v1/character/"

// CreateCharacterRequest is the body of POST /v1/character/{player}/{campaign}.
type CreateCharacterRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Race  string `json:"race"`
	Theme string `json:"theme"`
	Mode  string `json:"mode"`
}

// CharacterResponse carries the stored record and its rendered sheet.
type CharacterResponse struct {
	Character *character.Character `json:"character"`
	Sheet     string               `json:"sheet"`
}

// CharacterHandler serves /v1/character/{player}/{campaign}[/rest|/admin].
// Reads and creation run directly against storage; deletion, rest and admin
// overrides go through the worker so they are ordered with turns.
type CharacterHandler struct {
	storage  storage.Storage
	queue    RequestQueue
	notifier QueueNotifier
	logger   *slog.Logger
	newRNG   func() *rand.Rand
}

// NewCharacterHandler creates a character handler. notifier may be nil.
func NewCharacterHandler(store storage.Storage, q RequestQueue, notifier QueueNotifier, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{
		storage:  store,
		queue:    q,
		notifier: notifier,
		logger:   logger,
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, action, err := parseKey(r.URL.Path, characterPrefix)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, key)
	case action == "" && r.Method == http.MethodPost:
		h.handleCreate(w, r, key)
	case action == "" && r.Method == http.MethodDelete:
		enqueue(w, r, h.queue, h.notifier, h.logger, queue.NewDeleteRequest(key))
	case action == "rest" && r.Method == http.MethodPost:
		enqueue(w, r, h.queue, h.notifier, h.logger, queue.NewTurnRequest(key, "!rest"))
	case action == "admin" && r.Method == http.MethodPost:
		h.handleAdmin(w, r, key)
	case action != "" && action != "rest" && action != "admin":
		writeError(w, h.logger, http.StatusNotFound, "Unknown character action.")
	default:
		h.logger.Warn("Method not allowed for character endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (h *CharacterHandler) handleGet(w http.ResponseWriter, r *http.Request, key character.Key) {
	c, err := h.storage.LoadCharacter(r.Context(), key)
	if err != nil {
		h.logger.Error("Failed to load character", "error", err, "character", key.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character.")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, character.NotFoundNotice)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, CharacterResponse{Character: c, Sheet: sheet.StatusText(c)})
}

func (h *CharacterHandler) handleCreate(w http.ResponseWriter, r *http.Request, key character.Key) {
	var req CreateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Class) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Name and class are required.")
		return
	}

	existing, err := h.storage.LoadCharacter(r.Context(), key)
	if err != nil {
		h.logger.Error("Failed to load character", "error", err, "character", key.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character.")
		return
	}
	if existing != nil {
		writeError(w, h.logger, http.StatusConflict, "A character already exists for this campaign.")
		return
	}

	c := rules.NewCharacter(key, req.Name, req.Class, req.Race, req.Theme, character.ParseMode(req.Mode), h.newRNG())
	if err := h.storage.SaveCharacter(r.Context(), c); err != nil {
		h.logger.Error("Failed to save character", "error", err, "character", key.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save character.")
		return
	}
	h.logger.Info("Character created",
		"character", key.String(),
		"class", c.Class,
		"mode", c.Mode)
	writeJSON(w, h.logger, http.StatusCreated, CharacterResponse{Character: c, Sheet: sheet.StatusText(c)})
}

func (h *CharacterHandler) handleAdmin(w http.ResponseWriter, r *http.Request, key character.Key) {
	var action queue.AdminAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if action.Level == nil && len(action.Attributes) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Nothing to change: set 'level' or 'attributes'.")
		return
	}
	if action.Level != nil && (*action.Level < 0 || *action.Level > leveling.MaxLevel) {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Level must be between 0 and %d.", leveling.MaxLevel))
		return
	}
	enqueue(w, r, h.queue, h.notifier, h.logger, queue.NewAdminRequest(key, action))
}
