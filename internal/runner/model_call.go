package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/petasbytes/runloop/internal/telemetry"
	"github.com/petasbytes/runloop/run"
)

// callModel runs the Model Call Stage: one capability call, at most one
// appended assistant message, exactly one recorded step. The step is recorded
// on every path before the stage reports failure upward, so a failed call is
// never invisible in the history.
func (d *Driver) callModel(ctx context.Context, st *run.RunState) (*run.Message, error) {
	ref := run.NextStepRef(st)
	started := time.Now().UTC()
	record := &run.ModelCallRecord{Input: run.CloneMessages(st.Messages)}

	req := run.ModelRequest{
		Model:      d.model,
		Messages:   st.Messages,
		Tools:      d.catalog,
		ToolChoice: run.ToolChoiceAuto,
		MaxTokens:  d.maxTokens,
		Timeout:    st.Config.ModelCallTimeout,
	}

	resp, err := d.invokeModel(ctx, req)
	switch {
	case err != nil:
		record.Err = err.Error()
	case resp == nil:
		err = fmt.Errorf("model capability returned no response")
		record.Err = err.Error()
	case resp.Message.Role != run.RoleAssistant:
		err = fmt.Errorf("model returned role %q, want %q", resp.Message.Role, run.RoleAssistant)
		record.Err = err.Error()
	default:
		msg := resp.Message
		st.AppendMessage(msg)
		record.Output = &msg
	}

	finished := time.Now().UTC()
	step := run.Step{
		ID:         ref.ID,
		Index:      ref.Index,
		Kind:       run.StepModelCall,
		StartedAt:  started,
		FinishedAt: &finished,
		ModelCall:  record,
	}
	if appendErr := st.AppendStep(step); appendErr != nil {
		return nil, appendErr
	}

	fields := map[string]any{
		"run_id":      st.RunID,
		"step_id":     ref.ID,
		"model":       d.model,
		"streaming":   d.stream,
		"duration_ms": finished.Sub(started).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
	} else {
		fields["actions"] = len(record.Output.Actions)
	}
	telemetry.Emit("model_call", fields)

	if err != nil {
		return nil, err
	}
	return record.Output, nil
}

// invokeModel picks the blocking or incremental mode. Both funnel into the
// same commit path in callModel; streaming only adds live chunk forwarding to
// the observers and a check that the stream actually finished with a final
// message.
func (d *Driver) invokeModel(ctx context.Context, req run.ModelRequest) (*run.ModelResponse, error) {
	if !d.stream {
		return d.caller.CallModel(ctx, req)
	}

	var sawFinal bool
	resp, err := d.caller.StreamModel(ctx, req, func(chunk run.StreamChunk) {
		if chunk.Done {
			sawFinal = true
		}
		d.notifyChunk(chunk)
	})
	if err != nil {
		return nil, err
	}
	if !sawFinal || resp == nil {
		return nil, fmt.Errorf("model stream ended without a final message")
	}
	return resp, nil
}
