package tools

import (
	"context"
	"encoding/json"
)

type AddNumbersInput struct {
	A float64 `json:"a" jsonschema_description:"First addend."`
	B float64 `json:"b" jsonschema_description:"Second addend."`
}

var AddNumbersDefinition = ToolDefinition{
	Name:        "add_numbers",
	Description: "Add two numbers and return the sum as JSON, e.g. {\"sum\": 5}.",
	InputSchema: AddNumbersInputSchema,
	Function:    AddNumbers,
}

var AddNumbersInputSchema = GenerateSchema[AddNumbersInput]()

func AddNumbers(ctx context.Context, tc ExecContext, input json.RawMessage) (string, error) {
	var in AddNumbersInput
	if err := decodeInput(input, &in); err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]float64{"sum": in.A + in.B})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
