package telemetry

import (
	"github.com/petasbytes/runloop/internal/metrics"
	"github.com/petasbytes/runloop/run"
)

// Sink is a run observer that lands a lifecycle summary in the JSONL
// event stream when a run finishes.
type Sink struct{}

// OnRunFinished emits a run_finished event with step-history counts.
func (Sink) OnRunFinished(res *run.Result) {
	if res == nil {
		return
	}
	s := metrics.Summarize(res.Steps)
	Emit("run_finished", map[string]any{
		"run_id":           res.RunID,
		"status":           string(res.Status),
		"reason":           string(res.TerminationReason),
		"steps":            len(res.Steps),
		"model_calls":      s.ModelCalls,
		"tool_invocations": s.ToolInvocations,
		"tool_results":     s.ToolResults,
		"tool_calls":       res.TotalToolCalls,
		"tool_failures":    s.ToolFailures,
		"duration_ms":      res.UpdatedAt.Sub(res.CreatedAt).Milliseconds(),
	})
}

// OnStreamChunk emits nothing; live chunk printing belongs to the CLI.
func (Sink) OnStreamChunk(run.StreamChunk) {}
