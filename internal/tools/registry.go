// Package tools holds the static catalog of enrichment tools and their
// implementations. Each tool consumes canonical input fields, produces
// canonical output fields, and may emit "_"-prefixed metadata that the
// executor propagates but never surfaces as user data.
package tools

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ErrNotImplemented is returned when a cataloged tool has no executor yet.
// Placeholder entries keep the planner honest about what could be produced
// without silently pretending to produce it.
var ErrNotImplemented = eris.New("tools: not implemented")

// ExecuteFunc runs one tool. The accumulated map holds outputs from earlier
// steps in the same plan; implementations read it but never mutate it.
type ExecuteFunc func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error)

// Tier buckets tools by what a call costs.
type Tier string

const (
	TierFree    Tier = "free"
	TierCheap   Tier = "cheap"
	TierPremium Tier = "premium"
)

// ToolDefinition is one catalog entry. Immutable after registration.
type ToolDefinition struct {
	ID              string
	Name            string
	EntityType      model.EntityType
	Strategies      []model.Strategy
	RequiredInputs  []string
	OptionalInputs  []string // consulted when present, never gate runnability
	ExpectedOutputs []string
	Priority        int // lower runs earlier
	CostCents       int
	Tier            Tier
	CanFail         bool
	// FallbackToolID names the tool the planner schedules as this tool's
	// fallback. Empty means the planner picks one by role convention.
	FallbackToolID string
	Execute        ExecuteFunc
}

// Run invokes the tool's executor, or fails with ErrNotImplemented for
// placeholder entries.
func (t ToolDefinition) Run(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
	if t.Execute == nil {
		return nil, eris.Wrapf(ErrNotImplemented, "tools: %s", t.ID)
	}
	return t.Execute(ctx, in, acc)
}

func (t ToolDefinition) supportsStrategy(s model.Strategy) bool {
	for _, have := range t.Strategies {
		if have == s {
			return true
		}
	}
	return false
}

// CanRunReport is the registry's answer to "could this tool run now?".
type CanRunReport struct {
	CanRun  bool
	Missing []string
}

// Registry is the append-only tool catalog. Immutable after process init;
// all reads are lock-free.
type Registry struct {
	byID  map[string]ToolDefinition
	order []ToolDefinition
}

// NewRegistry builds a registry from definitions, validating each entry.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{byID: make(map[string]ToolDefinition, len(defs))}
	for _, d := range defs {
		if err := r.register(d); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		return r.order[i].Priority < r.order[j].Priority
	})
	return r, nil
}

func (r *Registry) register(d ToolDefinition) error {
	if d.ID == "" {
		return eris.New("tools: tool without id")
	}
	if _, dup := r.byID[d.ID]; dup {
		return eris.Errorf("tools: duplicate tool id %q", d.ID)
	}
	if len(d.Strategies) == 0 {
		return eris.Errorf("tools: %s advertises no strategies", d.ID)
	}
	for _, f := range d.RequiredInputs {
		if !model.IsKnownField(f) {
			return eris.Errorf("tools: %s requires unknown field %q", d.ID, f)
		}
	}
	for _, f := range d.OptionalInputs {
		if !model.IsKnownField(f) {
			return eris.Errorf("tools: %s optionally reads unknown field %q", d.ID, f)
		}
	}
	for _, f := range d.ExpectedOutputs {
		if !model.IsKnownField(f) {
			return eris.Errorf("tools: %s produces unknown field %q", d.ID, f)
		}
	}
	switch d.Tier {
	case TierFree, TierCheap, TierPremium:
	case "":
		if d.CostCents == 0 {
			d.Tier = TierFree
		} else {
			d.Tier = TierCheap
		}
	default:
		return eris.Errorf("tools: %s has unknown tier %q", d.ID, d.Tier)
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d)
	return nil
}

// GetByID looks a tool up by id.
func (r *Registry) GetByID(id string) (ToolDefinition, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// All returns every tool, sorted by ascending priority.
func (r *Registry) All() []ToolDefinition {
	out := make([]ToolDefinition, len(r.order))
	copy(out, r.order)
	return out
}

// ForEntityType returns tools for one entity type, ascending priority.
func (r *Registry) ForEntityType(e model.EntityType) []ToolDefinition {
	return r.filter(func(t ToolDefinition) bool { return t.EntityType == e })
}

// ForStrategy returns tools advertising a strategy, ascending priority.
func (r *Registry) ForStrategy(s model.Strategy) []ToolDefinition {
	return r.filter(func(t ToolDefinition) bool { return t.supportsStrategy(s) })
}

// Matching returns tools for the entity type that advertise the strategy,
// ascending priority.
func (r *Registry) Matching(e model.EntityType, s model.Strategy) []ToolDefinition {
	return r.filter(func(t ToolDefinition) bool {
		return t.EntityType == e && t.supportsStrategy(s)
	})
}

// ForOutput returns every tool that can produce the field, ascending
// priority.
func (r *Registry) ForOutput(field string) []ToolDefinition {
	return r.filter(func(t ToolDefinition) bool {
		for _, f := range t.ExpectedOutputs {
			if f == field {
				return true
			}
		}
		return false
	})
}

// CanRun checks a tool's required inputs against the available field set.
func (r *Registry) CanRun(t ToolDefinition, available map[string]bool) CanRunReport {
	var missing []string
	for _, f := range t.RequiredInputs {
		if !available[f] {
			missing = append(missing, f)
		}
	}
	return CanRunReport{CanRun: len(missing) == 0, Missing: missing}
}

// TotalCost sums the cost of the named tools. Unknown ids count zero.
func (r *Registry) TotalCost(ids []string) int {
	total := 0
	for _, id := range ids {
		if t, ok := r.byID[id]; ok {
			total += t.CostCents
		}
	}
	return total
}

func (r *Registry) filter(keep func(ToolDefinition) bool) []ToolDefinition {
	var out []ToolDefinition
	for _, t := range r.order {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
