package model

import "fmt"

// WorkflowStep is one scheduled tool invocation inside a plan.
type WorkflowStep struct {
	ToolID          string   `json:"toolId"`
	RequiredInputs  []string `json:"requiredInputs,omitempty"`
	ExpectedOutputs []string `json:"expectedOutputs,omitempty"`
	CostCents       int      `json:"costCents"`
	CanFail         bool     `json:"canFail"`
	FallbackToolID  string   `json:"fallbackToolId,omitempty"`
	// Reason records why the planner scheduled this step (strategy slot,
	// field-capability extension, ...). Diagnostic only.
	Reason string `json:"reason,omitempty"`
}

// WorkflowPlan is the planner's output for one enrichment request.
type WorkflowPlan struct {
	Strategy           Strategy       `json:"strategy"`
	Steps              []WorkflowStep `json:"steps"`
	FallbackPlan       []WorkflowStep `json:"fallbackPlan,omitempty"`
	MaxCostCents       int            `json:"maxCostCents"`
	ExpectedConfidence float64        `json:"expectedConfidence"`
}

// WorkflowErrorKind is the category of a planning refusal.
type WorkflowErrorKind string

const (
	PlanInvalidInput  WorkflowErrorKind = "INVALID_INPUT"
	PlanNotFound      WorkflowErrorKind = "NOT_FOUND"
	PlanMissingInputs WorkflowErrorKind = "MISSING_INPUTS"
)

// WorkflowError is the planner's structured refusal to build a plan.
type WorkflowError struct {
	Kind          WorkflowErrorKind `json:"kind"`
	Reason        string            `json:"reason"`
	MissingInputs []string          `json:"missingInputs,omitempty"`
}

func (e *WorkflowError) Error() string {
	if len(e.MissingInputs) > 0 {
		return fmt.Sprintf("plan: %s: %s (missing: %v)", e.Kind, e.Reason, e.MissingInputs)
	}
	return fmt.Sprintf("plan: %s: %s", e.Kind, e.Reason)
}
