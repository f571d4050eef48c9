package run

import (
	"fmt"
	"time"
)

// StepKind discriminates the step union.
type StepKind string

const (
	StepModelCall      StepKind = "model_call"
	StepToolInvocation StepKind = "tool_invocation"
	StepToolResult     StepKind = "tool_result"
	StepTermination    StepKind = "termination"
)

// ModelCallRecord is the payload of a model_call step. Input is a snapshot of
// the history sent to the model, never an alias of the live slice. A failed
// call still produces a record, with Err set and Output nil.
type ModelCallRecord struct {
	Input  []Message `json:"input"`
	Output *Message  `json:"output,omitempty"`
	Err    string    `json:"error,omitempty"`
}

// TerminationRecord is the payload of a termination step.
type TerminationRecord struct {
	Reason TerminationReason `json:"reason"`
	Detail string            `json:"detail"`
}

// Step is one recorded unit of run history. Kind selects which payload field
// is populated; the others stay nil.
type Step struct {
	ID         string     `json:"id"`
	Index      int        `json:"index"`
	Kind       StepKind   `json:"kind"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	ModelCall   *ModelCallRecord   `json:"model_call,omitempty"`
	Invocations []ToolInvocation   `json:"invocations,omitempty"`
	Results     []ToolExecution    `json:"results,omitempty"`
	Termination *TerminationRecord `json:"termination,omitempty"`
}

// StepRef is the (id, index) pair allocated for the step about to be
// appended.
type StepRef struct {
	ID    string
	Index int
}

// NextStepRef sequences the next step: index equals the current step count
// and the id derives from the index alone, so the pair is a pure function of
// state with no hidden counter.
func NextStepRef(s *RunState) StepRef {
	idx := len(s.Steps)
	return StepRef{ID: fmt.Sprintf("step-%04d", idx), Index: idx}
}
