package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/runloop/internal/telemetry"
	"github.com/petasbytes/runloop/run"
)

// dispatchOutcome tells the policy how a tool round ended.
type dispatchOutcome struct {
	budgetExceeded bool
	projected      int
	allowed        int
}

// dispatchTools runs the Tool Dispatch Stage for one assistant turn:
//
//  1. translate requested actions into invocations;
//  2. record the tool_invocation step before anything executes;
//  3. check the whole batch against the tool-call budget;
//  4. execute the batch concurrently;
//  5. record the tool_result step in invocation order;
//  6. append one tool feedback message per result, in result order.
//
// When the budget check fails, steps 4-6 are skipped entirely: no result step,
// no counter movement, no feedback.
func (d *Driver) dispatchTools(ctx context.Context, st *run.RunState, actions []run.RequestedAction) (dispatchOutcome, error) {
	ref := run.NextStepRef(st)
	invs := translateActions(actions, ref.Index)

	started := time.Now().UTC()
	invStamp := started
	step := run.Step{
		ID:          ref.ID,
		Index:       ref.Index,
		Kind:        run.StepToolInvocation,
		StartedAt:   started,
		FinishedAt:  &invStamp,
		Invocations: invs,
	}
	if err := st.AppendStep(step); err != nil {
		return dispatchOutcome{}, err
	}

	// One check for the whole batch, never per invocation.
	if st.Config.MaxToolCalls > 0 {
		projected := st.TotalToolCalls + len(invs)
		if projected > st.Config.MaxToolCalls {
			telemetry.Emit("tool_batch_skipped", map[string]any{
				"run_id":    st.RunID,
				"step_id":   ref.ID,
				"projected": projected,
				"allowed":   st.Config.MaxToolCalls,
			})
			return dispatchOutcome{budgetExceeded: true, projected: projected, allowed: st.Config.MaxToolCalls}, nil
		}
	}

	execStart := time.Now().UTC()
	results := d.tools.ExecuteBatch(ctx, invs)
	execEnd := time.Now().UTC()
	if len(results) != len(invs) {
		// The executor broke its contract; surfacing this as a run failure
		// beats recording a result step that violates the pairing invariant.
		return dispatchOutcome{}, fmt.Errorf("tool executor returned %d results for %d invocations", len(results), len(invs))
	}

	resRef := run.NextStepRef(st)
	resStep := run.Step{
		ID:         resRef.ID,
		Index:      resRef.Index,
		Kind:       run.StepToolResult,
		StartedAt:  execStart,
		FinishedAt: &execEnd,
		Results:    results,
	}
	if err := st.AppendStep(resStep); err != nil {
		return dispatchOutcome{}, err
	}

	for i, res := range results {
		fields := map[string]any{
			"run_id":      st.RunID,
			"call_id":     res.CallID,
			"tool_name":   res.ToolName,
			"duration_ms": res.DurationMs,
			"input_size":  len(invs[i].Args),
			"output_size": len(res.Data),
		}
		if res.Err != nil {
			fields["error"] = string(res.Err.Kind)
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)

		st.AppendMessage(run.NewToolMessage(res.CallID, res.ToolName, feedbackContent(res)))
	}

	return dispatchOutcome{}, nil
}

// translateActions resolves requested actions into executable invocations.
// The correlation id is the action's own id when present; otherwise a
// synthesized stepIndex+position id keeps it unique within the run.
func translateActions(actions []run.RequestedAction, stepIndex int) []run.ToolInvocation {
	invs := make([]run.ToolInvocation, 0, len(actions))
	for i, a := range actions {
		callID := a.ID
		if callID == "" {
			callID = fmt.Sprintf("call-%d-%d", stepIndex, i)
		}
		invs = append(invs, run.ToolInvocation{CallID: callID, ToolName: a.Name, Args: normalizeArgs(a.Args)})
	}
	return invs
}

// normalizeArgs passes a payload through when it parses as a JSON object and
// treats an empty payload as {}. Anything else is wrapped in a sentinel
// {"_raw": ...} object so translation never fails: the tool sees and rejects
// malformed input itself.
func normalizeArgs(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return json.RawMessage(`{}`)
	}
	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		return json.RawMessage(trimmed)
	}
	b, _ := json.Marshal(map[string]string{"_raw": string(raw)})
	return b
}

// feedbackContent serializes one result for the model: the success payload
// as-is, or an {"error": ...} envelope.
func feedbackContent(res run.ToolExecution) string {
	if res.OK {
		return string(res.Data)
	}
	b, err := json.Marshal(map[string]*run.ToolError{"error": res.Err})
	if err != nil {
		return fmt.Sprintf(`{"error":{"kind":"internal","message":%q}}`, err.Error())
	}
	return string(b)
}
