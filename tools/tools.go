package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/petasbytes/runloop/run"
)

// ExecContext carries the ambient facilities a tool may use. Tools take the
// clock, environment, and logger from here instead of reaching for globals,
// so the caller of the loop owns every side channel.
type ExecContext struct {
	Now func() time.Time
	Env func(key string) string
	Log *slog.Logger
}

// ToolDefinition describes one callable tool: its catalog entry plus the
// handler invoked with the raw JSON arguments.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Function    func(ctx context.Context, tc ExecContext, input json.RawMessage) (string, error)
}

// Spec converts the definition into its provider-neutral catalog entry.
func (d ToolDefinition) Spec() run.ToolSpec {
	return run.ToolSpec{Name: d.Name, Description: d.Description, Parameters: d.InputSchema}
}

// GenerateSchema derives the JSON Schema for T. Definitions are inlined and
// additional properties disallowed, so providers receive one closed object
// schema per tool.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	schema := reflector.Reflect(v)
	b, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: marshal schema: %v", err))
	}
	return b
}

// decodeInput unmarshals tool arguments, rejecting fields the input type does
// not declare. The generated schemas set additionalProperties to false; the
// decoder enforces the same contract, which is how the raw-text sentinel for
// malformed arguments ends up as a validation error.
func decodeInput(input json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
