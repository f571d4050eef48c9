package runner

import (
	"context"

	"github.com/petasbytes/runloop/run"
)

// ModelCaller is the model-calling capability. Both methods produce one
// complete assistant turn; StreamModel additionally feeds every notification
// to emit while the turn is being produced, with exactly the last one marked
// Done and carrying the final message. The loop treats the two modes as
// interchangeable implementations of the same call.
type ModelCaller interface {
	CallModel(ctx context.Context, req run.ModelRequest) (*run.ModelResponse, error)
	StreamModel(ctx context.Context, req run.ModelRequest, emit func(run.StreamChunk)) (*run.ModelResponse, error)
}

// ToolExecutor is the tool-execution capability. Implementations return one
// result per invocation in invocation order and never return a Go error:
// per-invocation failures travel inside the results.
type ToolExecutor interface {
	ExecuteBatch(ctx context.Context, invs []run.ToolInvocation) []run.ToolExecution
}

// ContextPreparer builds the system and user seed messages for a run.
type ContextPreparer interface {
	Prepare(task run.Task, cfg run.Config, catalog []run.ToolSpec) (system, user run.Message, err error)
}

// Observer receives run lifecycle notifications. Calls are fire-and-forget:
// the loop never blocks on, fails from, or retries observer behaviour.
type Observer interface {
	OnRunFinished(res *run.Result)
	OnStreamChunk(chunk run.StreamChunk)
}
