package run

import (
	"encoding/json"
	"time"
)

// ToolErrorKind classifies why a single invocation failed.
type ToolErrorKind string

const (
	ToolErrValidation ToolErrorKind = "validation"
	ToolErrNotFound   ToolErrorKind = "not_found"
	ToolErrExecution  ToolErrorKind = "execution"
	ToolErrInternal   ToolErrorKind = "internal"
)

// ToolError describes one invocation's failure. Retryable is an informational
// hint only; nothing in the loop retries automatically.
type ToolError struct {
	Kind      ToolErrorKind `json:"kind"`
	Message   string        `json:"message"`
	Retryable bool          `json:"retryable,omitempty"`
	Details   string        `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ToolInvocation is the canonical, executable form of a requested action.
// CallID is unique within the run.
type ToolInvocation struct {
	CallID   string          `json:"call_id"`
	ToolName string          `json:"tool_name"`
	Args     json.RawMessage `json:"args"`
}

// ToolExecution is the outcome of one invocation. Exactly one of Data and Err
// is set: OK true pairs with Data, OK false pairs with Err.
type ToolExecution struct {
	CallID     string          `json:"call_id"`
	ToolName   string          `json:"tool_name"`
	OK         bool            `json:"ok"`
	Data       json.RawMessage `json:"data,omitempty"`
	Err        *ToolError      `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DurationMs int64           `json:"duration_ms"`
}
