package run

import (
	"encoding/json"
	"time"
)

// ToolSpec is one catalog entry advertised to the model. Parameters is an
// opaque JSON schema; the loop forwards it without inspection.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolChoice tells the model whether tool use is on the table.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// ModelRequest is the provider-neutral shape of one model call. Temperature
// and MaxTokens of zero mean "provider default"; Timeout of zero means no
// deadline.
type ModelRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	ToolChoice  ToolChoice
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Usage reports provider token accounting when available.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ModelResponse is one complete assistant turn.
type ModelResponse struct {
	Message Message
	Usage   *Usage
}

// StreamChunk is one notification from an incremental model call. Exactly the
// last chunk of a well-formed stream has Done set and carries the final
// Message; earlier chunks carry deltas only.
type StreamChunk struct {
	ContentDelta   string
	ReasoningDelta string
	Done           bool
	Message        *Message
	Usage          *Usage
}
