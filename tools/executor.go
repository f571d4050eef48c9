package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/petasbytes/runloop/internal/telemetry"
	"github.com/petasbytes/runloop/run"
)

// Executor runs invocation batches against a fixed catalog.
//
// Invariants:
//   - the result slice matches the invocation slice index-for-index;
//   - one invocation's failure never blocks or aborts the rest of the batch;
//   - every failure is classified onto a run.ToolErrorKind, never propagated
//     as a Go error.
type Executor struct {
	byName  map[string]ToolDefinition
	timeout time.Duration
	tc      ExecContext
}

// NewExecutor builds the name-keyed dispatch table once for the run. timeout
// bounds each invocation when positive; log may be nil.
func NewExecutor(defs []ToolDefinition, timeout time.Duration, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	byName := make(map[string]ToolDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	return &Executor{
		byName:  byName,
		timeout: timeout,
		tc:      ExecContext{Now: time.Now, Env: os.Getenv, Log: log},
	}
}

// ExecuteBatch fans every invocation out on its own goroutine and joins
// before returning. Completion order is unconstrained; result order is the
// invocation order.
func (e *Executor) ExecuteBatch(ctx context.Context, invs []run.ToolInvocation) []run.ToolExecution {
	results := make([]run.ToolExecution, len(invs))
	var wg sync.WaitGroup
	for i, inv := range invs {
		wg.Add(1)
		go func(i int, inv run.ToolInvocation) {
			defer wg.Done()
			results[i] = e.executeOne(ctx, inv)
		}(i, inv)
	}
	wg.Wait()
	return results
}

func (e *Executor) executeOne(ctx context.Context, inv run.ToolInvocation) (exec run.ToolExecution) {
	tc := e.tc
	if runID, ok := telemetry.RunIDFromContext(ctx); ok {
		tc.Log = tc.Log.With("run_id", runID)
	}

	start := tc.Now()
	exec = run.ToolExecution{CallID: inv.CallID, ToolName: inv.ToolName, StartedAt: start}

	finish := func() {
		exec.FinishedAt = tc.Now()
		exec.DurationMs = exec.FinishedAt.Sub(start).Milliseconds()
	}

	// A panicking tool must not take the batch down with it.
	defer func() {
		if r := recover(); r != nil {
			exec.OK = false
			exec.Data = nil
			exec.Err = &run.ToolError{Kind: run.ToolErrInternal, Message: fmt.Sprintf("panic: %v", r)}
			finish()
		}
	}()

	def, ok := e.byName[inv.ToolName]
	if !ok {
		exec.Err = &run.ToolError{Kind: run.ToolErrNotFound, Message: fmt.Sprintf("unknown tool %q", inv.ToolName)}
		finish()
		return exec
	}

	select {
	case <-ctx.Done():
		exec.Err = classifyError(ctx.Err())
		finish()
		return exec
	default:
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := def.Function(callCtx, tc, inv.Args)
	finish()
	if err != nil {
		exec.Err = classifyError(err)
		tc.Log.Debug("tool failed", "tool", inv.ToolName, "call_id", inv.CallID, "kind", string(exec.Err.Kind), "err", err)
		return exec
	}

	exec.OK = true
	exec.Data = normalizePayload(out)
	tc.Log.Debug("tool ok", "tool", inv.ToolName, "call_id", inv.CallID, "duration_ms", exec.DurationMs)
	return exec
}

// Helpers

func classifyError(err error) *run.ToolError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return &run.ToolError{Kind: run.ToolErrValidation, Message: err.Error()}
	case errors.Is(err, ErrTransient):
		return &run.ToolError{Kind: run.ToolErrExecution, Message: err.Error(), Retryable: true}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &run.ToolError{Kind: run.ToolErrExecution, Message: err.Error(), Retryable: true}
	default:
		return &run.ToolError{Kind: run.ToolErrExecution, Message: err.Error()}
	}
}

// normalizePayload keeps tool output as-is when it already is JSON and wraps
// plain text as a JSON string otherwise, so Data always holds valid JSON.
func normalizePayload(out string) json.RawMessage {
	raw := json.RawMessage(out)
	if json.Valid(raw) {
		return raw
	}
	b, _ := json.Marshal(out)
	return b
}
