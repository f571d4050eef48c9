package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/petasbytes/runloop/run"
)

// OpenAI adapts the Responses API to the loop's model capability. The SDK
// reads OPENAI_API_KEY from the environment unless an option overrides it.
type OpenAI struct {
	client openai.Client
}

func NewOpenAI(opts ...option.RequestOption) *OpenAI {
	return &OpenAI{client: openai.NewClient(opts...)}
}

// CallModel performs one blocking Responses call.
func (p *OpenAI) CallModel(ctx context.Context, req run.ModelRequest) (*run.ModelResponse, error) {
	params, err := responsesParams(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := callContext(ctx, req.Timeout)
	defer cancel()

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: create response: %w", err)
	}
	return openaiResponse(resp), nil
}

// StreamModel performs one streaming Responses call. Output text deltas are
// forwarded as they arrive; the completed event carries the full response,
// which is emitted as the single final chunk.
func (p *OpenAI) StreamModel(ctx context.Context, req run.ModelRequest, emit func(run.StreamChunk)) (*run.ModelResponse, error) {
	params, err := responsesParams(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := callContext(ctx, req.Timeout)
	defer cancel()

	stream := p.client.Responses.NewStreaming(ctx, params)
	var final *responses.Response
	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "response.output_text.delta":
			if delta := event.AsResponseOutputTextDelta().Delta; delta != "" {
				emit(run.StreamChunk{ContentDelta: delta})
			}
		case "response.completed":
			resp := event.Response
			final = &resp
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai: stream: %w", err)
	}
	if final == nil {
		return nil, fmt.Errorf("openai: stream ended without a completed response")
	}

	out := openaiResponse(final)
	emit(run.StreamChunk{Done: true, Message: &out.Message, Usage: out.Usage})
	return out, nil
}

// responsesParams maps a model request onto Responses API params. Assistant
// action requests become function_call input items and tool messages become
// function_call_output items, so replayed history keeps its call pairing.
func responsesParams(req run.ModelRequest) (responses.ResponseNewParams, error) {
	input := make(responses.ResponseInputParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case run.RoleSystem:
			if m.Content != "" {
				input = append(input, responses.ResponseInputItemParamOfMessage(m.Content, responses.EasyInputMessageRoleSystem))
			}
		case run.RoleUser:
			input = append(input, responses.ResponseInputItemParamOfMessage(m.Content, responses.EasyInputMessageRoleUser))
		case run.RoleAssistant:
			if m.Content != "" {
				input = append(input, responses.ResponseInputItemParamOfMessage(m.Content, responses.EasyInputMessageRoleAssistant))
			}
			for _, a := range m.Actions {
				args := string(a.Args)
				if args == "" {
					args = "{}"
				}
				input = append(input, responses.ResponseInputItemParamOfFunctionCall(args, a.ID, a.Name))
			}
		case run.RoleTool:
			input = append(input, responses.ResponseInputItemParamOfFunctionCallOutput(m.CallID, m.Content))
		default:
			return responses.ResponseNewParams{}, fmt.Errorf("openai: unsupported message role %q", m.Role)
		}
	}
	if len(input) == 0 {
		return responses.ResponseNewParams{}, fmt.Errorf("openai: request has no conversation messages")
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.ToolChoice != run.ToolChoiceNone && len(req.Tools) > 0 {
		tools, err := openaiTools(req.Tools)
		if err != nil {
			return responses.ResponseNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

func openaiTools(specs []run.ToolSpec) ([]responses.ToolUnionParam, error) {
	out := make([]responses.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var parameters map[string]any
		if len(spec.Parameters) > 0 {
			if err := json.Unmarshal(spec.Parameters, &parameters); err != nil {
				return nil, fmt.Errorf("openai: tool %q schema: %w", spec.Name, err)
			}
		}
		variant := responses.ToolParamOfFunction(spec.Name, parameters, false)
		if spec.Description != "" && variant.OfFunction != nil {
			variant.OfFunction.Description = openai.String(spec.Description)
		}
		out = append(out, variant)
	}
	return out, nil
}

// openaiResponse flattens one Responses API result: aggregated output text
// plus any function_call items as requested actions.
func openaiResponse(resp *responses.Response) *run.ModelResponse {
	var actions []run.RequestedAction
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		call := item.AsFunctionCall()
		id := call.CallID
		if id == "" {
			id = call.ID
		}
		args := call.Arguments
		if args == "" {
			args = "{}"
		}
		actions = append(actions, run.RequestedAction{ID: id, Name: call.Name, Args: json.RawMessage(args)})
	}
	return &run.ModelResponse{
		Message: run.NewAssistantMessage(resp.OutputText(), actions),
		Usage:   &run.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
	}
}
