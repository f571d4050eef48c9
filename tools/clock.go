package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type ClockInput struct {
	Format string `json:"format,omitempty" jsonschema_description:"Go time layout for the result (default RFC 3339)."`
}

var ClockDefinition = ToolDefinition{
	Name:        "clock",
	Description: "Report the current time, optionally formatted with a Go time layout.",
	InputSchema: ClockInputSchema,
	Function:    Clock,
}

var ClockInputSchema = GenerateSchema[ClockInput]()

// Clock reads the clock from the execution context so tests and callers can
// pin it.
func Clock(ctx context.Context, tc ExecContext, input json.RawMessage) (string, error) {
	var in ClockInput
	if err := decodeInput(input, &in); err != nil {
		return "", err
	}

	layout := in.Format
	if layout == "" {
		layout = time.RFC3339
	}

	now := time.Now()
	if tc.Now != nil {
		now = tc.Now()
	}

	out, err := json.Marshal(map[string]string{"now": now.Format(layout)})
	if err != nil {
		return "", fmt.Errorf("clock: marshal result: %w", err)
	}
	return string(out), nil
}
