package run

import "time"

// Result is the caller-facing view of a finished run. State carries the full
// underlying record for introspection; the flat fields exist so reporting
// code does not have to reach through it.
type Result struct {
	RunID             string            `json:"run_id"`
	Status            Status            `json:"status"`
	TerminationReason TerminationReason `json:"termination_reason,omitempty"`
	FinalAnswer       *Message          `json:"final_answer,omitempty"`
	Err               string            `json:"error,omitempty"`
	Steps             []Step            `json:"steps"`
	TotalToolCalls    int               `json:"total_tool_calls"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	State             *RunState         `json:"-"`
}

// NewResult projects a finished state into its result view.
func NewResult(s *RunState) *Result {
	return &Result{
		RunID:             s.RunID,
		Status:            s.Status,
		TerminationReason: s.TerminationReason,
		FinalAnswer:       s.FinalAnswer,
		Err:               s.Err,
		Steps:             s.Steps,
		TotalToolCalls:    s.TotalToolCalls,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		State:             s,
	}
}
