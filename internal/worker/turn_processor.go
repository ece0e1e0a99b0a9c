package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/guialv3s/InfinityAIRPG/internal/services"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
	"github.com/guialv3s/InfinityAIRPG/pkg/ledger"
	"github.com/guialv3s/InfinityAIRPG/pkg/leveling"
	"github.com/guialv3s/InfinityAIRPG/pkg/passive"
	"github.com/guialv3s/InfinityAIRPG/pkg/prompts"
	"github.com/guialv3s/InfinityAIRPG/pkg/queue"
	"github.com/guialv3s/InfinityAIRPG/pkg/reconcile"
	"github.com/guialv3s/InfinityAIRPG/pkg/sheet"
	"github.com/guialv3s/InfinityAIRPG/pkg/storage"
)

// ProviderErrorNotice is shown when the narrator could not be reached.
// Nothing is reconciled on that turn.
const ProviderErrorNotice = "⚠️ The narrator is silent right now. Please try again in a moment."

// chatTimeout bounds one provider call. It may exceed lockTTL; the worker
// renews the lock while a turn runs.
const chatTimeout = 60 * time.Second

const (
	commandReset     = "reset"
	commandInventory = "inventory"
	commandStatus    = "status"
	commandRest      = "rest"
	commandHelp      = "commands"
)

// commandAliases maps every accepted spelling to its command.
var commandAliases = map[string]string{
	"!reset":      commandReset,
	"!resetar":    commandReset,
	"!inventory":  commandInventory,
	"!inventario": commandInventory,
	"!inventário": commandInventory,
	"!status":     commandStatus,
	"!rest":       commandRest,
	"!descansar":  commandRest,
	"!commands":   commandHelp,
	"!comandos":   commandHelp,
}

// CommandsHelp lists the commands players can type.
const CommandsHelp = "📖 **Commands**\n" +
	"- !status: show your character sheet\n" +
	"- !inventory (!inventario): list your items and gold\n" +
	"- !rest (!descansar): take a long rest and recover\n" +
	"- !reset (!resetar): start over with the same character\n" +
	"- !commands (!comandos): show this list"

// DeletedNotice confirms a queued delete.
const DeletedNotice = "🗑️ Your character and adventure history were deleted."

const resetNotice = "🔄 Your adventure has been reset. Progress, items and memories are gone; your name and attributes remain."

// TurnProcessor runs one queued request to completion: commands are
// answered directly, narration goes through the provider and the
// reconciliation engine.
type TurnProcessor struct {
	storage      storage.Storage
	llmService   services.LLMService
	orchestrator *reconcile.Orchestrator
	historyLimit int
	logger       *slog.Logger
}

// NewTurnProcessor creates a turn processor. A nil registry uses the
// built-in status effects; historyLimit <= 0 uses prompts.DefaultHistoryLimit.
func NewTurnProcessor(
	store storage.Storage,
	llmService services.LLMService,
	registry *passive.Registry,
	historyLimit int,
	logger *slog.Logger,
) *TurnProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if historyLimit <= 0 {
		historyLimit = prompts.DefaultHistoryLimit
	}
	return &TurnProcessor{
		storage:      store,
		llmService:   llmService,
		orchestrator: reconcile.New(store, registry, logger),
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Process dispatches a queued request by type.
func (p *TurnProcessor) Process(ctx context.Context, req *queue.Request) (*chat.TurnResponse, error) {
	switch req.Type {
	case queue.RequestTypeTurn:
		return p.ProcessTurn(ctx, req)
	case queue.RequestTypeAdmin:
		return p.ApplyAdmin(ctx, req)
	case queue.RequestTypeDelete:
		return p.DeleteCharacter(ctx, req)
	default:
		return nil, fmt.Errorf("unknown request type: %s", req.Type)
	}
}

// ParseCommand returns the command named by message, if any.
func ParseCommand(message string) (string, bool) {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return "", false
	}
	cmd, ok := commandAliases[strings.ToLower(fields[0])]
	return cmd, ok
}

// ProcessTurn handles one player message.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req *queue.Request) (*chat.TurnResponse, error) {
	key := req.Key()
	if cmd, ok := ParseCommand(req.Message); ok {
		resp, err := p.runCommand(ctx, key, cmd)
		if err != nil {
			return nil, err
		}
		resp.RequestID = req.RequestID
		resp.Command = cmd
		return resp, nil
	}
	resp, err := p.narrate(ctx, key, req.Message)
	if err != nil {
		return nil, err
	}
	resp.RequestID = req.RequestID
	return resp, nil
}

func (p *TurnProcessor) runCommand(ctx context.Context, key character.Key, cmd string) (*chat.TurnResponse, error) {
	if cmd == commandHelp {
		return &chat.TurnResponse{Message: CommandsHelp}, nil
	}

	c, err := p.storage.LoadCharacter(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil {
		return &chat.TurnResponse{Message: character.NotFoundNotice}, nil
	}

	switch cmd {
	case commandInventory:
		return &chat.TurnResponse{Message: sheet.InventoryText(c)}, nil
	case commandStatus:
		return &chat.TurnResponse{Message: sheet.StatusText(c)}, nil
	case commandRest:
		rested, notice := ledger.PerformRest(c)
		if err := p.storage.SaveCharacter(ctx, rested); err != nil {
			return nil, fmt.Errorf("failed to save character: %w", err)
		}
		return &chat.TurnResponse{Message: notice, Changed: true}, nil
	case commandReset:
		if err := p.storage.SaveCharacter(ctx, ledger.Reset(c)); err != nil {
			return nil, fmt.Errorf("failed to save character: %w", err)
		}
		if err := p.storage.DeleteHistory(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to clear history: %w", err)
		}
		p.logger.Info("Character reset", "character", key.String())
		return &chat.TurnResponse{Message: resetNotice, Changed: true}, nil
	}
	return nil, fmt.Errorf("unhandled command: %s", cmd)
}

func (p *TurnProcessor) narrate(ctx context.Context, key character.Key, message string) (*chat.TurnResponse, error) {
	log := p.logger.With("character", key.String())

	passiveNotice, err := p.orchestrator.ApplyPassive(ctx, key)
	if err != nil {
		return nil, err
	}

	c, err := p.storage.LoadCharacter(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil {
		return &chat.TurnResponse{Message: character.NotFoundNotice}, nil
	}

	history, err := p.storage.LoadHistory(ctx, key, p.historyLimit)
	if err != nil {
		// an empty window still produces a playable turn
		log.Error("Failed to load history", "error", err)
		history = nil
	}

	messages, err := prompts.BuildMessages(c, history, message, passiveNotice, p.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat messages: %w", err)
	}

	chatCtx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	log.Debug("Sending chat request to LLM", "messages", len(messages))
	reply, err := p.llmService.Chat(chatCtx, messages)
	if err != nil {
		log.Error("LLM chat failed", "error", err)
		resp := &chat.TurnResponse{Message: ProviderErrorNotice, Changed: passiveNotice != ""}
		if passiveNotice != "" {
			resp.Notices = []string{passiveNotice}
			resp.Message += "\n\n" + passiveNotice
		}
		return resp, nil
	}

	result, err := p.orchestrator.Reconcile(ctx, key, reply.Message)
	if err != nil {
		// the narrative is still worth showing
		log.Error("Failed to reconcile turn", "error", err)
	}
	if passiveNotice != "" {
		result.Messages = append(result.Messages, passiveNotice)
		result.Changed = true
	}

	if err := p.storage.AppendHistory(ctx, key,
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: message},
		chat.ChatMessage{Role: chat.ChatRoleAgent, Content: reply.Message},
	); err != nil {
		log.Error("Failed to append history", "error", err)
	}

	return &chat.TurnResponse{
		Message:   result.Text(),
		Narrative: result.Narrative,
		Notices:   result.Messages,
		Changed:   result.Changed,
	}, nil
}

// ApplyAdmin applies an administrative level or attribute override.
func (p *TurnProcessor) ApplyAdmin(ctx context.Context, req *queue.Request) (*chat.TurnResponse, error) {
	if req.Admin == nil {
		return nil, fmt.Errorf("admin request has no action")
	}
	key := req.Key()
	c, err := p.storage.LoadCharacter(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil {
		return &chat.TurnResponse{RequestID: req.RequestID, Message: character.NotFoundNotice}, nil
	}

	work := c.Clone()
	var notes []string
	if lvl := req.Admin.Level; lvl != nil {
		if *lvl < 0 {
			return nil, fmt.Errorf("level must be non-negative, got %d", *lvl)
		}
		leveling.SetLevel(work, *lvl)
		notes = append(notes, fmt.Sprintf("🛠️ Level set to %d.", work.Level))
	}
	if len(req.Admin.Attributes) > 0 {
		unknown := leveling.OverrideAttributes(work, req.Admin.Attributes)
		changed := make([]string, 0, len(req.Admin.Attributes))
		for label := range req.Admin.Attributes {
			if !slices.Contains(unknown, label) {
				changed = append(changed, label)
			}
		}
		sort.Strings(changed)
		if len(changed) > 0 {
			notes = append(notes, "🛠️ Attributes updated: "+strings.Join(changed, ", ")+".")
		}
		if len(unknown) > 0 {
			notes = append(notes, "Unknown attributes ignored: "+strings.Join(unknown, ", ")+".")
		}
	}
	work.Clamp()

	if err := p.storage.SaveCharacter(ctx, work); err != nil {
		return nil, fmt.Errorf("failed to save character: %w", err)
	}
	p.logger.Info("Applied admin override", "character", key.String(), "notes", notes)

	return &chat.TurnResponse{
		RequestID: req.RequestID,
		Message:   strings.Join(notes, "\n"),
		Notices:   notes,
		Changed:   true,
		Command:   "admin",
	}, nil
}

// DeleteCharacter removes the character and its history. Running it from the
// queue orders it after any turn already in flight for the same character.
func (p *TurnProcessor) DeleteCharacter(ctx context.Context, req *queue.Request) (*chat.TurnResponse, error) {
	key := req.Key()
	if err := p.storage.DeleteCharacter(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to delete character: %w", err)
	}
	if err := p.storage.DeleteHistory(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to delete history: %w", err)
	}
	p.logger.Info("Deleted character", "character", key.String())
	return &chat.TurnResponse{
		RequestID: req.RequestID,
		Message:   DeletedNotice,
		Changed:   true,
		Command:   "delete",
	}, nil
}
