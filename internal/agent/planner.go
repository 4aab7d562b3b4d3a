// Package agent turns a classified row into a workflow plan and executes
// it. The planner is a pure computation over the tool registry; the
// executor owns all I/O sequencing, short-circuiting, and fallback.
package agent

import (
	"fmt"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/tools"
)

// Plan builds a workflow for one enrichment request. A nil plan always
// comes with a non-nil WorkflowError.
func Plan(reg *tools.Registry, c model.ClassificationResult, in model.NormalizedInput, targetField string) (*model.WorkflowPlan, *model.WorkflowError) {
	if c.Strategy == model.StrategyFailFast {
		return nil, &model.WorkflowError{
			Kind:   model.PlanInvalidInput,
			Reason: firstNonEmptyStr(c.FailReason, c.Reason, "input classified as FAIL_FAST"),
		}
	}

	in = adoptCompanyName(in, c.EntityType)
	available := availableSet(in)
	if len(available) == 0 {
		return nil, &model.WorkflowError{Kind: model.PlanInvalidInput, Reason: "No existing data in row"}
	}

	candidates := reg.Matching(c.EntityType, c.Strategy)
	if len(candidates) == 0 {
		return nil, &model.WorkflowError{
			Kind:   model.PlanNotFound,
			Reason: fmt.Sprintf("no tools for entity %s with strategy %s", c.EntityType, c.Strategy),
		}
	}

	primary, fallback := shapeSteps(reg, c.Strategy, candidates)

	primary = runnableFilter(primary, available)
	fallback = runnableFilter(fallback, available)

	primary, werr := ensureTargetProducible(reg, c.EntityType, primary, available, targetField)
	if werr != nil {
		return nil, werr
	}
	if len(primary) == 0 {
		return nil, &model.WorkflowError{
			Kind:          model.PlanMissingInputs,
			Reason:        "no step can run with the available fields",
			MissingInputs: missingForAll(reg, candidates, available),
		}
	}

	steps := toWorkflowSteps(primary, "")
	plan := &model.WorkflowPlan{
		Strategy:           c.Strategy,
		Steps:              steps,
		FallbackPlan:       toWorkflowSteps(fallback, "fallback"),
		MaxCostCents:       totalCost(primary),
		ExpectedConfidence: expectedConfidence(c, len(primary)),
	}
	return plan, nil
}

// adoptCompanyName lets a company-shaped "name" satisfy tools that consume
// the company field. COMPANY_NAME_ONLY rows often arrive that way.
func adoptCompanyName(in model.NormalizedInput, e model.EntityType) model.NormalizedInput {
	if e == model.EntityCompany && in.Company == "" && in.Name != "" {
		in.Company = in.Name
	}
	return in
}

func availableSet(in model.NormalizedInput) map[string]bool {
	set := map[string]bool{}
	for _, f := range in.AvailableFields() {
		set[f] = true
	}
	return set
}

// shapeSteps composes the primary and fallback sequences for a strategy.
// A tool's declared FallbackToolID wins; otherwise role detection is by id
// convention: resolvers carry "resolve" or "search", search-engine tools
// carry "search", profile tools carry "profile".
func shapeSteps(reg *tools.Registry, s model.Strategy, candidates []tools.ToolDefinition) (primary, fallback []tools.ToolDefinition) {
	switch s {
	case model.StrategyDirectLookup:
		primary = []tools.ToolDefinition{candidates[0]}
		if fb, ok := declaredFallback(reg, candidates[0]); ok {
			fallback = []tools.ToolDefinition{fb}
		} else if alt := firstOther(candidates, primary, isResolution); alt != nil {
			fallback = []tools.ToolDefinition{*alt}
		}

	case model.StrategyHypothesisAndScore:
		if res := firstMatch(candidates, isResolution); res != nil {
			primary = append(primary, *res)
		}
		if prof := firstOther(candidates, primary, isProfile); prof != nil {
			primary = append(primary, *prof)
		}
		if se := firstOther(candidates, primary, isSearchEngine); se != nil {
			fallback = []tools.ToolDefinition{*se}
		}

	case model.StrategySearchAndValidate:
		if se := firstMatch(candidates, isSearchEngine); se != nil {
			primary = append(primary, *se)
		}
		if res := firstOther(candidates, primary, isResolution); res != nil {
			primary = append(primary, *res)
		}
		if prof := firstOther(candidates, primary, isProfile); prof != nil {
			primary = append(primary, *prof)
		}
	}
	if len(primary) == 0 {
		primary = []tools.ToolDefinition{candidates[0]}
	}
	return primary, fallback
}

// declaredFallback resolves a tool's own FallbackToolID against the
// registry. Missing means either none declared or the tool is disabled.
func declaredFallback(reg *tools.Registry, t tools.ToolDefinition) (tools.ToolDefinition, bool) {
	if t.FallbackToolID == "" || t.FallbackToolID == t.ID {
		return tools.ToolDefinition{}, false
	}
	return reg.GetByID(t.FallbackToolID)
}

func isResolution(t tools.ToolDefinition) bool {
	return strings.Contains(t.ID, "resolve") || strings.Contains(t.ID, "search")
}

func isSearchEngine(t tools.ToolDefinition) bool {
	return strings.Contains(t.ID, "search")
}

func isProfile(t tools.ToolDefinition) bool {
	return strings.Contains(t.ID, "profile")
}

func firstMatch(candidates []tools.ToolDefinition, pred func(tools.ToolDefinition) bool) *tools.ToolDefinition {
	return firstOther(candidates, nil, pred)
}

func firstOther(candidates, taken []tools.ToolDefinition, pred func(tools.ToolDefinition) bool) *tools.ToolDefinition {
	for _, c := range candidates {
		if pred(c) && !containsTool(taken, c.ID) {
			return &c
		}
	}
	return nil
}

func containsTool(list []tools.ToolDefinition, id string) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}

// runnableFilter keeps only steps whose required inputs are satisfied by
// the running available set; surviving steps contribute their outputs.
func runnableFilter(steps []tools.ToolDefinition, available map[string]bool) []tools.ToolDefinition {
	running := map[string]bool{}
	for k := range available {
		running[k] = true
	}
	var kept []tools.ToolDefinition
	for _, step := range steps {
		if !inputsSatisfied(step, running) {
			continue
		}
		kept = append(kept, step)
		for _, out := range step.ExpectedOutputs {
			running[out] = true
		}
	}
	return kept
}

func inputsSatisfied(t tools.ToolDefinition, available map[string]bool) bool {
	for _, f := range t.RequiredInputs {
		if !available[f] {
			return false
		}
	}
	return true
}

// ensureTargetProducible extends the plan when no scheduled step produces
// the target field.
func ensureTargetProducible(reg *tools.Registry, e model.EntityType, steps []tools.ToolDefinition, available map[string]bool, targetField string) ([]tools.ToolDefinition, *model.WorkflowError) {
	if targetField == "" || producesField(steps, targetField) {
		return steps, nil
	}

	producers := reg.ForOutput(targetField)
	if len(producers) == 0 {
		return nil, &model.WorkflowError{
			Kind:   model.PlanNotFound,
			Reason: fmt.Sprintf("no tool produces field %q", targetField),
		}
	}

	reachable := map[string]bool{}
	for k := range available {
		reachable[k] = true
	}
	for _, s := range steps {
		for _, out := range s.ExpectedOutputs {
			reachable[out] = true
		}
	}

	var missing []string
	for _, p := range producers {
		if p.EntityType != e {
			continue
		}
		if containsTool(steps, p.ID) {
			continue
		}
		report := reg.CanRun(p, reachable)
		if report.CanRun {
			return append(steps, p), nil
		}
		missing = append(missing, report.Missing...)
	}

	if len(missing) > 0 {
		return nil, &model.WorkflowError{
			Kind:          model.PlanMissingInputs,
			Reason:        fmt.Sprintf("no producer of %q can run with the available fields", targetField),
			MissingInputs: dedupe(missing),
		}
	}
	return nil, &model.WorkflowError{
		Kind:   model.PlanNotFound,
		Reason: fmt.Sprintf("no %s tool produces field %q", e, targetField),
	}
}

func producesField(steps []tools.ToolDefinition, field string) bool {
	for _, s := range steps {
		for _, out := range s.ExpectedOutputs {
			if out == field {
				return true
			}
		}
	}
	return false
}

func toWorkflowSteps(defs []tools.ToolDefinition, reason string) []model.WorkflowStep {
	var out []model.WorkflowStep
	for _, d := range defs {
		out = append(out, model.WorkflowStep{
			ToolID:          d.ID,
			RequiredInputs:  d.RequiredInputs,
			ExpectedOutputs: d.ExpectedOutputs,
			CostCents:       d.CostCents,
			CanFail:         d.CanFail,
			FallbackToolID:  d.FallbackToolID,
			Reason:          reason,
		})
	}
	return out
}

func totalCost(defs []tools.ToolDefinition) int {
	sum := 0
	for _, d := range defs {
		sum += d.CostCents
	}
	return sum
}

// expectedConfidence scores how well this plan should do, from identity
// strength, ambiguity, and plan depth.
func expectedConfidence(c model.ClassificationResult, stepCount int) float64 {
	conf := 0.5
	switch c.IdentityStrength {
	case model.IdentityStrong:
		conf += 0.30
	case model.IdentityModerate:
		conf += 0.15
	case model.IdentityWeak:
		conf += 0.05
	}
	switch c.AmbiguityRisk {
	case model.AmbiguityLow:
		conf += 0.10
	case model.AmbiguityHigh:
		conf -= 0.15
	}
	stepBonus := 0.05 * float64(stepCount)
	if stepBonus > 0.15 {
		stepBonus = 0.15
	}
	conf += stepBonus

	if conf < 0.10 {
		conf = 0.10
	}
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

func missingForAll(reg *tools.Registry, candidates []tools.ToolDefinition, available map[string]bool) []string {
	var missing []string
	for _, c := range candidates {
		missing = append(missing, reg.CanRun(c, available).Missing...)
	}
	return dedupe(missing)
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmptyStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
