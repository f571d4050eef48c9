package metrics_test

import (
	"testing"

	"github.com/petasbytes/runloop/internal/metrics"
	"github.com/petasbytes/runloop/run"
)

func TestSummarize_CountsByKind(t *testing.T) {
	steps := []run.Step{
		{Index: 0, Kind: run.StepModelCall},
		{Index: 1, Kind: run.StepToolInvocation, Invocations: []run.ToolInvocation{{CallID: "c1"}, {CallID: "c2"}}},
		{Index: 2, Kind: run.StepToolResult, Results: []run.ToolExecution{
			{CallID: "c1", OK: true},
			{CallID: "c2", OK: false, Err: &run.ToolError{Kind: run.ToolErrExecution, Message: "boom"}},
		}},
		{Index: 3, Kind: run.StepModelCall},
		{Index: 4, Kind: run.StepTermination, Termination: &run.TerminationRecord{Reason: run.ReasonCompleted}},
	}

	s := metrics.Summarize(steps)
	if s.ModelCalls != 2 {
		t.Errorf("ModelCalls = %d, want 2", s.ModelCalls)
	}
	if s.ToolInvocations != 1 {
		t.Errorf("ToolInvocations = %d, want 1", s.ToolInvocations)
	}
	if s.ToolResults != 1 {
		t.Errorf("ToolResults = %d, want 1", s.ToolResults)
	}
	if s.ToolCalls != 2 {
		t.Errorf("ToolCalls = %d, want 2", s.ToolCalls)
	}
	if s.ToolFailures != 1 {
		t.Errorf("ToolFailures = %d, want 1", s.ToolFailures)
	}
	if s.Terminations != 1 {
		t.Errorf("Terminations = %d, want 1", s.Terminations)
	}
}

func TestSummarize_EmptyHistory(t *testing.T) {
	if s := metrics.Summarize(nil); s != (metrics.Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}
