package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/petasbytes/runloop/run"
)

// DefaultModel is used when neither config nor flags pick one.
const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

const defaultMaxTokens = 1024

// Anthropic adapts the Messages API to the loop's model capability. The SDK
// reads ANTHROPIC_API_KEY from the environment unless an option overrides it.
type Anthropic struct {
	client anthropic.Client
}

func NewAnthropic(opts ...option.RequestOption) *Anthropic {
	return &Anthropic{client: anthropic.NewClient(opts...)}
}

// CallModel performs one blocking Messages call.
func (p *Anthropic) CallModel(ctx context.Context, req run.ModelRequest) (*run.ModelResponse, error) {
	params, err := anthropicParams(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := callContext(ctx, req.Timeout)
	defer cancel()

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: create message: %w", err)
	}
	return anthropicResponse(msg), nil
}

// StreamModel performs one streaming Messages call. Text and thinking deltas
// are forwarded as they arrive while the SDK accumulator rebuilds the
// complete message, which is then emitted as the single final chunk.
func (p *Anthropic) StreamModel(ctx context.Context, req run.ModelRequest, emit func(run.StreamChunk)) (*run.ModelResponse, error) {
	params, err := anthropicParams(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := callContext(ctx, req.Timeout)
	defer cancel()

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	acc := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic: accumulate event: %w", err)
		}
		deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		switch d := deltaEvent.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if d.Text != "" {
				emit(run.StreamChunk{ContentDelta: d.Text})
			}
		case anthropic.ThinkingDelta:
			if d.Thinking != "" {
				emit(run.StreamChunk{ReasoningDelta: d.Thinking})
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: stream: %w", err)
	}
	if acc.Role == "" {
		return nil, fmt.Errorf("anthropic: stream closed before a message arrived")
	}

	resp := anthropicResponse(&acc)
	emit(run.StreamChunk{Done: true, Message: &resp.Message, Usage: resp.Usage})
	return resp, nil
}

// anthropicParams maps a model request onto Messages API params. System
// messages become top-level system blocks, and consecutive tool messages
// collapse into one user message so every tool_result answers the tool_use
// in the immediately preceding assistant turn.
func anthropicParams(req run.ModelRequest) (anthropic.MessageNewParams, error) {
	var system []anthropic.TextBlockParam
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))

	for i := 0; i < len(req.Messages); {
		m := req.Messages[i]
		switch m.Role {
		case run.RoleSystem:
			if m.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}
			i++
		case run.RoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			i++
		case run.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(m.Actions))
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, a := range m.Actions {
				args := a.Args
				if len(args) == 0 {
					args = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(a.ID, args, a.Name))
			}
			if len(blocks) > 0 {
				msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
			}
			i++
		case run.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for i < len(req.Messages) && req.Messages[i].Role == run.RoleTool {
				tm := req.Messages[i]
				blocks = append(blocks, anthropic.NewToolResultBlock(tm.CallID, tm.Content, false))
				i++
			}
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(msgs) == 0 {
		return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: request has no conversation messages")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.ToolChoice != run.ToolChoiceNone && len(req.Tools) > 0 {
		tools, err := anthropicTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// anthropicTools converts catalog entries into tool params. Generated
// schemas arrive as raw JSON; the Messages API wants the object's pieces
// split out.
func anthropicTools(specs []run.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var schema struct {
			Properties any      `json:"properties"`
			Required   []string `json:"required"`
		}
		if len(spec.Parameters) > 0 {
			if err := json.Unmarshal(spec.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("anthropic: tool %q schema: %w", spec.Name, err)
			}
		}
		input := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if schema.Properties != nil {
			input.Properties = schema.Properties
		}
		if len(schema.Required) > 0 {
			input.Required = schema.Required
		}
		tool := &anthropic.ToolParam{Name: spec.Name, InputSchema: input}
		if spec.Description != "" {
			tool.Description = anthropic.String(spec.Description)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: tool})
	}
	return out, nil
}

// anthropicResponse flattens a Messages API response into one assistant
// turn: text blocks joined by newlines, tool_use blocks as requested actions.
func anthropicResponse(msg *anthropic.Message) *run.ModelResponse {
	var text strings.Builder
	var actions []run.RequestedAction
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			if b.Text == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args := json.RawMessage(b.Input)
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			actions = append(actions, run.RequestedAction{ID: b.ID, Name: b.Name, Args: args})
		}
	}
	return &run.ModelResponse{
		Message: run.NewAssistantMessage(text.String(), actions),
		Usage:   &run.Usage{InputTokens: msg.Usage.InputTokens, OutputTokens: msg.Usage.OutputTokens},
	}
}
