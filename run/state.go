package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle position of a run. It only moves forward.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusTerminated Status = "terminated"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTerminated
}

// TerminationReason classifies why a run stopped.
type TerminationReason string

const (
	ReasonCompleted       TerminationReason = "completed"
	ReasonMaxStepsReached TerminationReason = "max_steps_reached"
	ReasonModelError      TerminationReason = "model_error"

	// Reserved reason codes; declared so consumers can switch over the full
	// set, never produced by the current policy.
	ReasonToolError   TerminationReason = "tool_error"
	ReasonUserStopped TerminationReason = "user_stopped"
)

var statusTransitions = map[Status][]Status{
	StatusIdle:    {StatusRunning},
	StatusRunning: {StatusCompleted, StatusFailed, StatusTerminated},
}

// RunState is the mutable record of one run. Exactly one loop execution owns
// it; once a termination step lands it is treated as immutable.
type RunState struct {
	RunID              string            `json:"run_id"`
	Task               Task              `json:"task"`
	Config             Config            `json:"config"`
	Status             Status            `json:"status"`
	TerminationReason  TerminationReason `json:"termination_reason,omitempty"`
	Err                string            `json:"error,omitempty"`
	Messages           []Message         `json:"messages"`
	Steps              []Step            `json:"steps"`
	TotalToolCalls     int               `json:"total_tool_calls"`
	FinalAnswer        *Message          `json:"final_answer,omitempty"`
	AvailableToolNames []string          `json:"available_tool_names,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewRunState seeds the state for one run: status idle, history holding the
// system and user seed messages, no steps, and a fresh run id. Run ids use
// UUIDv7 so they sort by creation time; uniqueness is best-effort.
func NewRunState(task Task, cfg Config, system, user Message, toolNames []string) (*RunState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if system.Role != RoleSystem {
		return nil, fmt.Errorf("run: initial system message has role %q", system.Role)
	}
	if user.Role != RoleUser {
		return nil, fmt.Errorf("run: initial user message has role %q", user.Role)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("run: generate run id: %w", err)
	}
	now := time.Now().UTC()
	return &RunState{
		RunID:              "run-" + id.String(),
		Task:               task,
		Config:             cfg,
		Status:             StatusIdle,
		Messages:           []Message{system, user},
		Steps:              []Step{},
		AvailableToolNames: append([]string(nil), toolNames...),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Transition moves Status forward. Backward moves and moves out of a terminal
// status are rejected.
func (s *RunState) Transition(next Status) error {
	for _, allowed := range statusTransitions[s.Status] {
		if next == allowed {
			s.Status = next
			s.touch()
			return nil
		}
	}
	return fmt.Errorf("run: illegal status transition %s -> %s", s.Status, next)
}

// AppendMessage appends to the conversation history.
func (s *RunState) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.touch()
}

// AppendStep appends one step. It enforces dense indices and the
// single-termination rule, and keeps TotalToolCalls equal to the summed
// lengths of all tool_result steps by construction.
func (s *RunState) AppendStep(step Step) error {
	if s.Terminated() {
		return fmt.Errorf("run: step append after termination")
	}
	if step.Index != len(s.Steps) {
		return fmt.Errorf("run: step index %d does not follow %d existing steps", step.Index, len(s.Steps))
	}
	if step.Kind == StepToolResult {
		s.TotalToolCalls += len(step.Results)
	}
	s.Steps = append(s.Steps, step)
	s.touch()
	return nil
}

// Terminated reports whether the termination step has been appended.
func (s *RunState) Terminated() bool {
	return len(s.Steps) > 0 && s.Steps[len(s.Steps)-1].Kind == StepTermination
}

func (s *RunState) touch() {
	s.UpdatedAt = time.Now().UTC()
}
