package tools

import (
	"context"
	"encoding/json"
)

type EchoInput struct {
	Text string `json:"text" jsonschema_description:"Text to echo back unchanged."`
}

var EchoDefinition = ToolDefinition{
	Name:        "echo",
	Description: "Echo the given text back unchanged.",
	InputSchema: EchoInputSchema,
	Function:    Echo,
}

var EchoInputSchema = GenerateSchema[EchoInput]()

func Echo(ctx context.Context, tc ExecContext, input json.RawMessage) (string, error) {
	var in EchoInput
	if err := decodeInput(input, &in); err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]string{"text": in.Text})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
