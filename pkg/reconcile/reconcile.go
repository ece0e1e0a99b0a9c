// Package reconcile is the entry point for turning narrator output into
// persisted character state and player-facing text.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/delta"
	"github.com/guialv3s/InfinityAIRPG/pkg/ledger"
	"github.com/guialv3s/InfinityAIRPG/pkg/passive"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
)

// CharacterStore is the slice of storage the orchestrator needs.
// LoadCharacter returns nil, nil when the character does not exist.
type CharacterStore interface {
	LoadCharacter(ctx context.Context, key character.Key) (*character.Character, error)
	SaveCharacter(ctx context.Context, c *character.Character) error
}

// Result is the outcome of one turn.
type Result struct {
	Narrative string        `json:"narrative"`
	LevelUp   string        `json:"level_up,omitempty"`
	Passive   string        `json:"passive,omitempty"`
	Messages  []string      `json:"messages,omitempty"` // side messages in display order
	Changed   bool          `json:"changed"`
	Found     bool          `json:"found"`
	Report    ledger.Report `json:"report"`
}

// Text joins the narrative and side messages with blank lines.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Messages)+1)
	for _, p := range append([]string{r.Narrative}, r.Messages...) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Orchestrator runs passive effects, extraction, leveling and the ledger
// merge for one character and persists the result in a single save.
//
// It is safe to call concurrently for different characters. Calls for the
// same character must be serialised by the caller.
type Orchestrator struct {
	store    CharacterStore
	registry *passive.Registry
	filter   *textfilter.MetaFilter
	logger   *slog.Logger
}

// New creates an orchestrator. A nil registry means DefaultRegistry.
func New(store CharacterStore, registry *passive.Registry, logger *slog.Logger) *Orchestrator {
	if registry == nil {
		registry = passive.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		filter:   textfilter.NewMetaFilter(),
		logger:   logger,
	}
}

// Clean strips the state block and meta-commentary from narrator text
// without touching any state.
func (o *Orchestrator) Clean(text string) string {
	res := delta.Extract(text, o.logger)
	return o.filter.Clean(res.Span.Strip(text))
}

// ProcessTurn applies passive effects, then the narrator's delta, and saves
// once if anything changed. The narrative is always returned, even when the
// save fails.
func (o *Orchestrator) ProcessTurn(ctx context.Context, key character.Key, text string) (Result, error) {
	return o.run(ctx, key, text, true)
}

// Reconcile is ProcessTurn without passive effects, for callers that
// applied them earlier in the turn with ApplyPassive.
func (o *Orchestrator) Reconcile(ctx context.Context, key character.Key, text string) (Result, error) {
	return o.run(ctx, key, text, false)
}

// ApplyPassive applies status effects on their own and saves if they
// changed anything. It returns the effect notice, or "" when nothing
// happened or the character does not exist.
func (o *Orchestrator) ApplyPassive(ctx context.Context, key character.Key) (string, error) {
	stored, err := o.store.LoadCharacter(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load character: %w", err)
	}
	if stored == nil {
		return "", nil
	}
	work := stored.Clone()
	msg := o.registry.ApplyTurnEffects(work)
	if msg == "" {
		return "", nil
	}
	if err := o.store.SaveCharacter(ctx, work); err != nil {
		return "", fmt.Errorf("failed to save character: %w", err)
	}
	o.logger.Info("Applied passive effects", "character", key.String(), "notice", msg)
	return msg, nil
}

func (o *Orchestrator) run(ctx context.Context, key character.Key, text string, withPassive bool) (Result, error) {
	extracted := delta.Extract(text, o.logger)
	result := Result{Narrative: o.filter.Clean(extracted.Span.Strip(text))}
	log := o.logger.With("character", key.String())

	stored, err := o.store.LoadCharacter(ctx, key)
	if err != nil {
		return result, fmt.Errorf("failed to load character: %w", err)
	}
	if stored == nil {
		result.Messages = []string{character.NotFoundNotice}
		return result, nil
	}
	result.Found = true

	// all work happens on a copy; the stored record only changes on save
	work := stored.Clone()
	if fixes := ledger.Normalize(work); len(fixes) > 0 {
		log.Debug("Normalised stored character", "fixes", fixes)
		result.Changed = true
	}

	if withPassive {
		result.Passive = o.registry.ApplyTurnEffects(work)
		result.Changed = result.Changed || result.Passive != ""
	}

	switch {
	case extracted.Delta != nil:
		report, err := ledger.NewDeltaWorker(work, extracted.Delta, log).Apply()
		if err != nil {
			log.Warn("Delta could not be applied", "error", err)
			break
		}
		result.Report = report
		result.LevelUp = report.LevelUp
		result.Changed = result.Changed || report.Changed
	case extracted.Nudge != nil:
		if ledger.ApplyNudge(work, extracted.Nudge, log) {
			result.Changed = true
		}
	}

	if result.Changed {
		if err := ctx.Err(); err != nil {
			return Result{Narrative: result.Narrative, Found: true}, fmt.Errorf("turn cancelled before save: %w", err)
		}
		if err := o.store.SaveCharacter(ctx, work); err != nil {
			// nothing persisted: drop the notices
			return Result{Narrative: result.Narrative, Found: true}, fmt.Errorf("failed to save character: %w", err)
		}
	}

	for _, msg := range []string{result.LevelUp, result.Passive} {
		if msg != "" {
			result.Messages = append(result.Messages, msg)
		}
	}
	return result, nil
}
