package runner

import (
	"fmt"

	"github.com/petasbytes/runloop/run"
)

// stageOutcome is what the latest stage hands the termination policy.
type stageOutcome struct {
	modelErr       error        // model call stage failure
	assistant      *run.Message // latest assistant turn, nil when modelErr is set
	budgetExceeded bool
	projected      int
	allowed        int
	lastIteration  bool // a tool round just finished on the final allowed iteration
	maxSteps       int
}

// decision is one row outcome of the policy: whether to stop, and where the
// run lands.
type decision struct {
	terminate bool
	status    run.Status
	reason    run.TerminationReason
	detail    string
}

// decide is the termination policy: a pure decision table over the latest
// stage outcome. The first matching row wins; at most one decision fires per
// iteration. The reserved reasons tool_error and user_stopped have no row.
func decide(o stageOutcome) decision {
	switch {
	case o.modelErr != nil:
		return decision{true, run.StatusFailed, run.ReasonModelError, o.modelErr.Error()}
	case o.assistant != nil && len(o.assistant.Actions) == 0:
		return decision{true, run.StatusCompleted, run.ReasonCompleted, "assistant returned a final answer"}
	case o.budgetExceeded:
		return decision{true, run.StatusTerminated, run.ReasonMaxStepsReached,
			fmt.Sprintf("tool-call budget exceeded: %d projected > %d allowed", o.projected, o.allowed)}
	case o.lastIteration:
		return decision{true, run.StatusTerminated, run.ReasonMaxStepsReached,
			fmt.Sprintf("max steps (%d) reached without a final answer", o.maxSteps)}
	default:
		return decision{}
	}
}
