package run

import (
	"fmt"
	"time"
)

// Config bounds a single run and is immutable once the run starts.
//
// MaxToolCalls of zero means unbounded. The timeouts are threaded through to
// the model and tool capabilities, which are responsible for honoring them;
// the loop itself never enforces a deadline.
type Config struct {
	MaxSteps         int           `json:"max_steps"`
	MaxToolCalls     int           `json:"max_tool_calls,omitempty"`
	ModelCallTimeout time.Duration `json:"model_call_timeout,omitempty"`
	ToolCallTimeout  time.Duration `json:"tool_call_timeout,omitempty"`
	// AllowNoToolAnswer is accepted for forward compatibility; the current
	// termination policy always accepts a direct answer.
	AllowNoToolAnswer bool              `json:"allow_no_tool_answer,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

func (c Config) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("config: max_steps must be >= 1, got %d", c.MaxSteps)
	}
	if c.MaxToolCalls < 0 {
		return fmt.Errorf("config: max_tool_calls must not be negative, got %d", c.MaxToolCalls)
	}
	if c.ModelCallTimeout < 0 {
		return fmt.Errorf("config: model_call_timeout must not be negative")
	}
	if c.ToolCallTimeout < 0 {
		return fmt.Errorf("config: tool_call_timeout must not be negative")
	}
	return nil
}
