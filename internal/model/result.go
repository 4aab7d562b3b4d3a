package model

import "time"

// EnrichState is the terminal state of one enrichment request.
type EnrichState string

const (
	StateOK           EnrichState = "OK"
	StatePartial      EnrichState = "PARTIAL"
	StateNotFound     EnrichState = "NOT_FOUND"
	StateInvalidInput EnrichState = "INVALID_INPUT"
	StateCircuitOpen  EnrichState = "CIRCUIT_OPEN"
)

// EnrichRequest is the RPC-shaped contract the job runner invokes for one
// (rowId, targetField) cell.
type EnrichRequest struct {
	RowID        string            `json:"rowId"`
	ExistingData map[string]string `json:"existingData"`
	TargetField  string            `json:"targetField"`
	Deadline     *time.Time        `json:"deadline,omitempty"`
}

// StepDiagnostic records what a single workflow step did.
type StepDiagnostic struct {
	StepNumber int    `json:"stepNumber"`
	ToolID     string `json:"toolId"`
	DurationMs int64  `json:"durationMs"`
	CacheHits  int    `json:"cacheHits,omitempty"`
	CostCents  int    `json:"costCents,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Diagnostics carries per-request telemetry back to the caller.
type Diagnostics struct {
	RequestID      string           `json:"requestId"`
	Classification string           `json:"classification,omitempty"`
	Strategy       string           `json:"strategy,omitempty"`
	Steps          []StepDiagnostic `json:"steps,omitempty"`
	CacheHits      int              `json:"cacheHits"`
	TotalCostCents int              `json:"totalCostCents"`
	DurationMs     int64            `json:"durationMs"`
	Reason         string           `json:"reason,omitempty"`
}

// EnrichResult is what the executor returns to the job runner. Outputs is a
// flat map of canonical field names to values; "_"-prefixed metadata rides
// along but is not user-visible.
type EnrichResult struct {
	State       EnrichState    `json:"state"`
	Outputs     map[string]any `json:"outputs"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}
