package runner_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/petasbytes/runloop/internal/runner"
	"github.com/petasbytes/runloop/run"
	"github.com/petasbytes/runloop/tools"
)

func TestExecute_MultiActionBatch_KeepsInvocationOrder(t *testing.T) {
	caller := newFakeCaller(
		actionTurn(
			run.RequestedAction{ID: "c-1", Name: "echo", Args: json.RawMessage(`{"text":"first"}`)},
			run.RequestedAction{ID: "c-2", Name: "add_numbers", Args: json.RawMessage(`{"a":2,"b":3}`)},
		),
		answerTurn("done"),
	)
	d := newDriver(t, caller, runner.Options{})

	res := execute(t, d, run.Config{MaxSteps: 4})

	assertTerminalShape(t, res)
	if res.Status != run.StatusCompleted {
		t.Fatalf("unexpected outcome: %s/%s", res.Status, res.TerminationReason)
	}
	if res.TotalToolCalls != 2 {
		t.Fatalf("TotalToolCalls = %d, want 2", res.TotalToolCalls)
	}

	results := res.Steps[2].Results
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Result order is invocation order regardless of completion order.
	if results[0].CallID != "c-1" || results[1].CallID != "c-2" {
		t.Fatalf("result order broken: %s then %s", results[0].CallID, results[1].CallID)
	}
	for i, r := range results {
		if !r.OK || r.Err != nil {
			t.Fatalf("result %d should be ok: %+v", i, r)
		}
		if r.FinishedAt.Before(r.StartedAt) {
			t.Fatalf("result %d finished before it started", i)
		}
	}

	// Feedback messages land in result order, one per result.
	msgs := res.State.Messages
	if msgs[3].CallID != "c-1" || msgs[4].CallID != "c-2" {
		t.Fatalf("feedback order broken: %s then %s", msgs[3].CallID, msgs[4].CallID)
	}
}

func TestExecute_FailureIsolatedWithinBatch(t *testing.T) {
	caller := newFakeCaller(
		actionTurn(
			run.RequestedAction{ID: "c-1", Name: "no_such_tool", Args: json.RawMessage(`{}`)},
			run.RequestedAction{ID: "c-2", Name: "echo", Args: json.RawMessage(`{"text":"still works"}`)},
		),
		answerTurn("done"),
	)
	d := newDriver(t, caller, runner.Options{})

	res := execute(t, d, run.Config{MaxSteps: 4})

	assertTerminalShape(t, res)
	if res.Status != run.StatusCompleted {
		t.Fatalf("tool failures must not end the run: %s/%s", res.Status, res.TerminationReason)
	}
	results := res.Steps[2].Results
	if results[0].OK || results[0].Err == nil || results[0].Err.Kind != run.ToolErrNotFound {
		t.Fatalf("unknown tool should fail as not_found: %+v", results[0])
	}
	if !results[1].OK {
		t.Fatalf("sibling invocation must be unaffected: %+v", results[1])
	}
	// Failures count toward the total like successes.
	if res.TotalToolCalls != 2 {
		t.Fatalf("TotalToolCalls = %d, want 2", res.TotalToolCalls)
	}

	// The failure feedback carries the error envelope.
	feedback := res.State.Messages[3]
	if !strings.Contains(feedback.Content, `"error"`) || !strings.Contains(feedback.Content, "not_found") {
		t.Fatalf("unexpected failure feedback: %q", feedback.Content)
	}
}

func TestExecute_MalformedArgs_ReachToolAsSentinel(t *testing.T) {
	caller := newFakeCaller(
		actionTurn(run.RequestedAction{ID: "c-1", Name: "add_numbers", Args: json.RawMessage(`{"a":2,`)}),
		answerTurn("could not add"),
	)
	d := newDriver(t, caller, runner.Options{})

	res := execute(t, d, run.Config{MaxSteps: 4})

	assertTerminalShape(t, res)
	if res.Status != run.StatusCompleted {
		t.Fatalf("malformed args must not end the run: %s/%s", res.Status, res.TerminationReason)
	}

	// Translation wrapped the broken payload instead of failing.
	inv := res.Steps[1].Invocations[0]
	var wrapped map[string]string
	if err := json.Unmarshal(inv.Args, &wrapped); err != nil {
		t.Fatalf("invocation args are not valid JSON: %s", inv.Args)
	}
	if wrapped["_raw"] != `{"a":2,` {
		t.Fatalf("sentinel does not carry the original payload: %+v", wrapped)
	}

	// The tool then rejects the sentinel as validation input.
	result := res.Steps[2].Results[0]
	if result.OK || result.Err == nil || result.Err.Kind != run.ToolErrValidation {
		t.Fatalf("expected validation failure, got %+v", result)
	}
}

func TestExecute_EmptyArgsBecomeEmptyObject(t *testing.T) {
	caller := newFakeCaller(
		actionTurn(run.RequestedAction{ID: "c-1", Name: "clock", Args: nil}),
		answerTurn("done"),
	)
	d := newDriver(t, caller, runner.Options{})

	res := execute(t, d, run.Config{MaxSteps: 4})

	inv := res.Steps[1].Invocations[0]
	if string(inv.Args) != "{}" {
		t.Fatalf("empty args should normalize to {}, got %s", inv.Args)
	}
	if result := res.Steps[2].Results[0]; !result.OK {
		t.Fatalf("clock should accept empty input: %+v", result)
	}
}

func TestExecute_MissingActionIDsAreSynthesized(t *testing.T) {
	caller := newFakeCaller(
		actionTurn(
			run.RequestedAction{Name: "echo", Args: json.RawMessage(`{"text":"a"}`)},
			run.RequestedAction{Name: "echo", Args: json.RawMessage(`{"text":"b"}`)},
		),
		answerTurn("done"),
	)
	d := newDriver(t, caller, runner.Options{})

	res := execute(t, d, run.Config{MaxSteps: 4})

	// The invocation step is step 1, so ids derive from it.
	inv := res.Steps[1].Invocations
	if inv[0].CallID != "call-1-0" || inv[1].CallID != "call-1-1" {
		t.Fatalf("synthesized ids wrong: %s, %s", inv[0].CallID, inv[1].CallID)
	}
	results := res.Steps[2].Results
	if results[0].CallID != "call-1-0" || results[1].CallID != "call-1-1" {
		t.Fatalf("results do not reuse synthesized ids: %+v", results)
	}
}

// shortExecutor violates the executor contract by dropping results.
type shortExecutor struct{}

func (shortExecutor) ExecuteBatch(ctx context.Context, invs []run.ToolInvocation) []run.ToolExecution {
	if len(invs) == 0 {
		return nil
	}
	return make([]run.ToolExecution, len(invs)-1)
}

func TestExecute_ExecutorContractViolation_FailsRun(t *testing.T) {
	caller := newFakeCaller(
		actionTurn(
			run.RequestedAction{ID: "c-1", Name: "echo", Args: json.RawMessage(`{"text":"a"}`)},
			run.RequestedAction{ID: "c-2", Name: "echo", Args: json.RawMessage(`{"text":"b"}`)},
		),
	)
	d, err := runner.New(caller, shortExecutor{}, seedPreparer{}, runner.Options{
		Model:   "claude-test",
		Catalog: tools.Catalog(tools.Registry()),
	})
	if err != nil {
		t.Fatal(err)
	}

	res := execute(t, d, run.Config{MaxSteps: 3})

	assertTerminalShape(t, res)
	assertStepKinds(t, res.Steps, run.StepModelCall, run.StepToolInvocation, run.StepTermination)
	if res.Status != run.StatusFailed || res.TerminationReason != run.ReasonModelError {
		t.Fatalf("unexpected outcome: %s/%s", res.Status, res.TerminationReason)
	}
	if !strings.Contains(res.Err, "1 results for 2 invocations") {
		t.Fatalf("unexpected error: %q", res.Err)
	}
	if res.TotalToolCalls != 0 {
		t.Fatalf("no result step landed, counter must stay 0: %d", res.TotalToolCalls)
	}
}
