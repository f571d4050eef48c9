package metrics

import "github.com/petasbytes/runloop/run"

// Summary holds basic step-history counts derived from a run.
type Summary struct {
	ModelCalls      int
	ToolInvocations int
	ToolResults     int
	ToolCalls       int
	ToolFailures    int
	Terminations    int
}

// Summarize computes and returns step-kind counts plus tool call and failure
// totals for a step history.
func Summarize(steps []run.Step) Summary {
	var s Summary
	for _, step := range steps {
		switch step.Kind {
		case run.StepModelCall:
			s.ModelCalls++
		case run.StepToolInvocation:
			s.ToolInvocations++
		case run.StepToolResult:
			s.ToolResults++
			s.ToolCalls += len(step.Results)
			s.ToolFailures += countFailures(step.Results)
		case run.StepTermination:
			s.Terminations++
		}
	}
	return s
}

// countFailures counts executions whose OK flag is unset.
func countFailures(results []run.ToolExecution) int {
	n := 0
	for _, r := range results {
		if !r.OK {
			n++
		}
	}
	return n
}
