package run

import "encoding/json"

// Task is the immutable input to a run. Input carries optional structured
// data the caller wants surfaced to the model alongside the description.
type Task struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Input       json.RawMessage `json:"input,omitempty"`
}
