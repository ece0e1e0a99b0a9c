// Package passive applies once-per-turn effects of status conditions.
package passive

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
)

// Resources a status effect can act on.
const (
	ResourceHealth = "health"
	ResourceMana   = "mana"
)

// Effect is the fixed per-turn change a named status causes.
type Effect struct {
	Name     string   `yaml:"name" json:"name"`
	Aliases  []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Resource string   `yaml:"resource" json:"resource"`
	Amount   int      `yaml:"amount" json:"amount"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
}

func (e Effect) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("status effect has no name")
	}
	if e.Resource != ResourceHealth && e.Resource != ResourceMana {
		return fmt.Errorf("status effect %q: unknown resource %q", e.Name, e.Resource)
	}
	if e.Amount == 0 {
		return fmt.Errorf("status effect %q: amount must not be zero", e.Name)
	}
	return nil
}

// apply changes the pool and returns the signed amount actually applied.
func (e Effect) apply(r *character.Resources) int {
	cur, maxv := &r.Health, r.MaxHealth
	if e.Resource == ResourceMana {
		cur, maxv = &r.Mana, r.MaxMana
	}
	before := *cur
	*cur = min(max(*cur+e.Amount, 0), maxv)
	return *cur - before
}

func (e Effect) notice(applied int) string {
	label := e.Label
	if label == "" {
		label = e.Name
	}
	if e.Resource == ResourceMana {
		return fmt.Sprintf("🔮 %s: %+d mana", label, applied)
	}
	return fmt.Sprintf("❤️ %s: %+d HP", label, applied)
}

// DefaultEffects are always registered.
var DefaultEffects = []Effect{
	{
		Name:     "Recuperação de Vida Extrema",
		Aliases:  []string{"Extreme Regeneration", "Extreme Life Recovery"},
		Resource: ResourceHealth,
		Amount:   15,
		Label:    "Extreme Regeneration",
	},
}

// Registry maps status names to effects. Lookups ignore case and accents.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	effects map[string]Effect
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{effects: make(map[string]Effect)}
}

// DefaultRegistry returns a registry holding DefaultEffects.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range DefaultEffects {
		_ = r.Register(e)
	}
	return r
}

// Register adds an effect under its name and aliases, replacing any effect
// previously registered under the same names.
func (r *Registry) Register(e Effect) error {
	if err := e.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range append([]string{e.Name}, e.Aliases...) {
		r.effects[textfilter.Fold(strings.TrimSpace(name))] = e
	}
	return nil
}

// Lookup finds the effect for a status name.
func (r *Registry) Lookup(status string) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.effects[textfilter.Fold(strings.TrimSpace(status))]
	return e, ok
}

type effectFile struct {
	Effects []Effect `yaml:"effects"`
}

// LoadYAML registers every effect in a YAML document of the form
//
//	effects:
//	  - name: Poisoned
//	    aliases: [Envenenado]
//	    resource: health
//	    amount: -5
//
// Nothing is registered if any entry is invalid.
func (r *Registry) LoadYAML(rd io.Reader) (int, error) {
	var f effectFile
	if err := yaml.NewDecoder(rd).Decode(&f); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to parse status effects: %w", err)
	}
	for _, e := range f.Effects {
		if err := e.validate(); err != nil {
			return 0, err
		}
	}
	for _, e := range f.Effects {
		_ = r.Register(e)
	}
	return len(f.Effects), nil
}

// ApplyTurnEffects applies the effect of every recognised status once and
// returns one line per effect that changed something, or "" when nothing
// did. A status listed twice acts once.
func (r *Registry) ApplyTurnEffects(c *character.Character) string {
	if c == nil {
		return ""
	}
	var lines []string
	seen := make(map[string]bool)
	for _, status := range c.Status {
		e, ok := r.Lookup(status)
		if !ok || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		if applied := e.apply(&c.Resources); applied != 0 {
			lines = append(lines, e.notice(applied))
		}
	}
	return strings.Join(lines, "\n")
}
