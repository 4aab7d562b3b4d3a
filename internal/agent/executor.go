package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/flight"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/tools"
)

// shortCircuitSlack is subtracted from the plan's expected confidence when
// deciding whether an already-filled target field is good enough to stop.
const shortCircuitSlack = 0.2

// Executor runs enrichment requests end to end: classify, plan, execute,
// merge. Safe for concurrent use.
type Executor struct {
	registry *tools.Registry
	services *provider.Services
}

// NewExecutor creates an Executor over a tool registry and the shared
// reliability services.
func NewExecutor(registry *tools.Registry, services *provider.Services) *Executor {
	return &Executor{registry: registry, services: services}
}

// Enrich handles one (rowId, targetField) cell. Identical concurrent
// requests for the same cell coalesce into a single execution.
func (e *Executor) Enrich(ctx context.Context, req model.EnrichRequest) model.EnrichResult {
	start := time.Now()
	requestID := uuid.NewString()

	res, err := flight.DoVal(ctx, e.services.Flight, flight.CellKey(req.RowID, req.TargetField),
		func(ctx context.Context) (model.EnrichResult, error) {
			return e.enrichCell(ctx, req, requestID), nil
		})
	if err != nil {
		// Only context cancellation escapes the flight.
		res = model.EnrichResult{
			State:       model.StatePartial,
			Outputs:     map[string]any{},
			Diagnostics: model.Diagnostics{RequestID: requestID, Reason: err.Error()},
		}
	}
	res.Diagnostics.DurationMs = time.Since(start).Milliseconds()
	return res
}

func (e *Executor) enrichCell(ctx context.Context, req model.EnrichRequest, requestID string) model.EnrichResult {
	in := model.NormalizeRow(req.RowID, req.ExistingData)
	c := classify.Classify(in)
	in = adoptCompanyName(in, c.EntityType)

	diag := model.Diagnostics{
		RequestID:      requestID,
		Classification: string(c.InputSignature),
		Strategy:       string(c.Strategy),
	}

	plan, werr := Plan(e.registry, c, in, req.TargetField)
	if werr != nil {
		diag.Reason = werr.Reason
		return model.EnrichResult{
			State:       stateForPlanError(werr),
			Outputs:     map[string]any{},
			Diagnostics: diag,
		}
	}

	if req.Deadline != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, *req.Deadline)
		defer cancel()
	}

	return e.runPlan(ctx, plan, in, req.TargetField, diag)
}

func stateForPlanError(werr *model.WorkflowError) model.EnrichState {
	if werr.Kind == model.PlanNotFound {
		return model.StateNotFound
	}
	return model.StateInvalidInput
}

// runPlan executes steps serially, merging each step's non-nil outputs
// into the accumulated map. A non-canFail step that fails or comes back
// empty switches execution to the fallback plan once.
func (e *Executor) runPlan(ctx context.Context, plan *model.WorkflowPlan, in model.NormalizedInput, targetField string, diag model.Diagnostics) model.EnrichResult {
	acc := map[string]any{}
	steps := plan.Steps
	onFallback := false

	for i := 0; i < len(steps); i++ {
		step := steps[i]
		if ctx.Err() != nil {
			diag.Reason = "deadline exceeded before step " + step.ToolID
			return e.finish(model.StatePartial, acc, diag)
		}

		outputs, stepDiag, err := e.runStep(ctx, step, in, acc, i+1, onFallback)
		diag.Steps = append(diag.Steps, stepDiag)
		diag.CacheHits += stepDiag.CacheHits
		diag.TotalCostCents += stepDiag.CostCents

		switch {
		case err != nil && resilience.IsCircuitOpen(err) && !step.CanFail:
			diag.Reason = err.Error()
			return e.finish(model.StateCircuitOpen, acc, diag)

		case err != nil && step.CanFail:
			continue

		case err != nil || emptyStep(outputs, step):
			if !step.CanFail && !onFallback && len(plan.FallbackPlan) > 0 {
				zap.L().Debug("agent: switching to fallback plan",
					zap.String("step", step.ToolID),
					zap.Error(err),
				)
				steps = plan.FallbackPlan
				i = -1
				onFallback = true
				continue
			}
			continue

		default:
			mergeOutputs(acc, outputs)
			if e.shortCircuit(acc, targetField, plan.ExpectedConfidence) {
				diag.Reason = "target satisfied early"
				return e.finish(model.StateOK, acc, diag)
			}
		}
	}

	if targetFilled(acc, targetField) {
		return e.finish(model.StateOK, acc, diag)
	}
	if len(userFields(acc)) > 0 {
		diag.Reason = firstNonEmptyStr(diag.Reason, "plan exhausted with target unfilled")
		return e.finish(model.StatePartial, acc, diag)
	}
	diag.Reason = firstNonEmptyStr(diag.Reason, "no tool produced any output")
	return e.finish(model.StateNotFound, acc, diag)
}

func (e *Executor) runStep(ctx context.Context, step model.WorkflowStep, in model.NormalizedInput, acc map[string]any, number int, fallback bool) (map[string]any, model.StepDiagnostic, error) {
	sd := model.StepDiagnostic{StepNumber: number, ToolID: step.ToolID, Fallback: fallback}

	tool, ok := e.registry.GetByID(step.ToolID)
	if !ok {
		sd.Skipped = true
		sd.Reason = "tool vanished from registry"
		return nil, sd, nil
	}

	statsBefore := e.services.Cache.Stats()
	start := time.Now()
	outputs, err := tool.Run(ctx, in, acc)
	sd.DurationMs = time.Since(start).Milliseconds()
	statsAfter := e.services.Cache.Stats()
	sd.CacheHits = int(statsAfter.Hits - statsBefore.Hits)

	if err != nil {
		sd.Skipped = true
		sd.Reason = err.Error()
		return nil, sd, err
	}
	sd.CostCents = step.CostCents
	return outputs, sd, nil
}

// emptyStep reports whether a step produced none of its declared outputs.
func emptyStep(outputs map[string]any, step model.WorkflowStep) bool {
	for _, f := range step.ExpectedOutputs {
		if v, ok := outputs[f]; ok && v != nil {
			return false
		}
	}
	return true
}

// mergeOutputs copies non-nil step outputs into the accumulated map.
// Metadata keys always overwrite so _confidence reflects the latest step.
func mergeOutputs(acc, outputs map[string]any) {
	for k, v := range outputs {
		if v == nil {
			continue
		}
		if model.IsMetaField(k) {
			acc[k] = v
			continue
		}
		if _, exists := acc[k]; !exists {
			acc[k] = v
		}
	}
}

func (e *Executor) shortCircuit(acc map[string]any, targetField string, expected float64) bool {
	if !targetFilled(acc, targetField) {
		return false
	}
	if conf, ok := acc[model.MetaConfidence].(float64); ok {
		return conf >= expected-shortCircuitSlack
	}
	return true
}

func targetFilled(acc map[string]any, targetField string) bool {
	if targetField == "" {
		return len(userFields(acc)) > 0
	}
	v, ok := acc[targetField]
	return ok && v != nil
}

// userFields filters the accumulated map down to canonical output fields.
func userFields(acc map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range acc {
		if model.IsKnownField(k) && v != nil {
			out[k] = v
		}
	}
	return out
}

func (e *Executor) finish(state model.EnrichState, acc map[string]any, diag model.Diagnostics) model.EnrichResult {
	outputs := userFields(acc)
	for k, v := range acc {
		if model.IsMetaField(k) {
			outputs[k] = v
		}
	}
	if state == model.StatePartial && len(outputs) == 0 {
		state = model.StateNotFound
	}
	return model.EnrichResult{State: state, Outputs: outputs, Diagnostics: diag}
}
