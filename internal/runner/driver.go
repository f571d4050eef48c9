package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/petasbytes/runloop/internal/telemetry"
	"github.com/petasbytes/runloop/run"
)

const defaultMaxTokens = 1024

// Driver owns the bounded iteration that constitutes one run: model call,
// policy check, tool dispatch, policy check, repeat.
type Driver struct {
	caller    ModelCaller
	tools     ToolExecutor
	preparer  ContextPreparer
	observers []Observer
	model     string
	maxTokens int
	stream    bool
	catalog   []run.ToolSpec
	toolNames []string
	log       *slog.Logger
}

// Options configures a Driver beyond its required capabilities.
type Options struct {
	Model     string
	MaxTokens int
	Stream    bool
	Catalog   []run.ToolSpec
	Observers []Observer
	Log       *slog.Logger
}

func New(caller ModelCaller, executor ToolExecutor, preparer ContextPreparer, opts Options) (*Driver, error) {
	if caller == nil {
		return nil, errors.New("runner: model caller is required")
	}
	if executor == nil {
		return nil, errors.New("runner: tool executor is required")
	}
	if preparer == nil {
		return nil, errors.New("runner: context preparer is required")
	}
	if opts.Model == "" {
		return nil, errors.New("runner: model name is required")
	}

	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	names := make([]string, 0, len(opts.Catalog))
	for _, spec := range opts.Catalog {
		names = append(names, spec.Name)
	}

	return &Driver{
		caller:    caller,
		tools:     executor,
		preparer:  preparer,
		observers: opts.Observers,
		model:     opts.Model,
		maxTokens: maxTokens,
		stream:    opts.Stream,
		catalog:   opts.Catalog,
		toolNames: names,
		log:       log,
	}, nil
}

// Execute orchestrates one run from seed messages to terminal status and
// reports the result to every observer. Ordinary run failures never surface
// as a Go error; the Result's status and reason fields carry them. The error
// return covers only setup problems (context preparation, state seeding)
// where no Run State exists to report through.
func (d *Driver) Execute(ctx context.Context, task run.Task, cfg run.Config) (*run.Result, error) {
	system, user, err := d.preparer.Prepare(task, cfg, d.catalog)
	if err != nil {
		return nil, fmt.Errorf("runner: prepare context: %w", err)
	}
	st, err := run.NewRunState(task, cfg, system, user, d.toolNames)
	if err != nil {
		return nil, err
	}

	ctx = telemetry.WithRunID(ctx, st.RunID)
	telemetry.Emit("run_started", map[string]any{
		"run_id":         st.RunID,
		"task_id":        task.ID,
		"model":          d.model,
		"max_steps":      cfg.MaxSteps,
		"max_tool_calls": cfg.MaxToolCalls,
	})
	d.log.Info("run started", "run_id", st.RunID, "task_id", task.ID, "model", d.model)

	d.runLoop(ctx, st)

	res := run.NewResult(st)
	d.log.Info("run finished", "run_id", st.RunID, "status", string(st.Status), "reason", string(st.TerminationReason), "steps", len(st.Steps), "tool_calls", st.TotalToolCalls)
	d.notifyFinished(res)
	return res, nil
}

// runLoop drives the bounded iteration. The deferred recover is the outer
// safety net: anything escaping the stage handlers force-terminates the run
// as failed/model_error instead of propagating to the caller.
func (d *Driver) runLoop(ctx context.Context, st *run.RunState) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("run panicked", "run_id", st.RunID, "panic", r)
			d.terminate(st, decision{
				terminate: true,
				status:    run.StatusFailed,
				reason:    run.ReasonModelError,
				detail:    fmt.Sprintf("unexpected failure: %v", r),
			}, nil)
		}
	}()

	if err := st.Transition(run.StatusRunning); err != nil {
		d.terminate(st, decision{terminate: true, status: run.StatusFailed, reason: run.ReasonModelError, detail: err.Error()}, nil)
		return
	}

	for i := 0; i < st.Config.MaxSteps; i++ {
		assistant, err := d.callModel(ctx, st)
		if err != nil {
			d.terminate(st, decide(stageOutcome{modelErr: err}), nil)
			return
		}

		if dec := decide(stageOutcome{assistant: assistant}); dec.terminate {
			d.terminate(st, dec, assistant)
			return
		}

		outcome, err := d.dispatchTools(ctx, st, assistant.Actions)
		if err != nil {
			d.terminate(st, decision{terminate: true, status: run.StatusFailed, reason: run.ReasonModelError, detail: err.Error()}, nil)
			return
		}
		if dec := decide(stageOutcome{budgetExceeded: outcome.budgetExceeded, projected: outcome.projected, allowed: outcome.allowed}); dec.terminate {
			d.terminate(st, dec, nil)
			return
		}

		if dec := decide(stageOutcome{lastIteration: i == st.Config.MaxSteps-1, maxSteps: st.Config.MaxSteps}); dec.terminate {
			d.terminate(st, dec, nil)
			return
		}
	}
}

// terminate appends the single termination step and freezes the run.
// FinalAnswer is set only on the completed path; Err mirrors the detail on
// failures. Safe to call from the recover path at any loop position.
func (d *Driver) terminate(st *run.RunState, dec decision, answer *run.Message) {
	if st.Terminated() {
		return
	}
	if st.Status == run.StatusIdle {
		// The recover path can fire before the running transition landed.
		_ = st.Transition(run.StatusRunning)
	}
	if err := st.Transition(dec.status); err != nil {
		d.log.Error("status transition rejected", "run_id", st.RunID, "err", err)
		return
	}
	st.TerminationReason = dec.reason
	if dec.status == run.StatusCompleted && answer != nil {
		st.FinalAnswer = answer
	}
	if dec.status == run.StatusFailed {
		st.Err = dec.detail
	}

	ref := run.NextStepRef(st)
	now := time.Now().UTC()
	step := run.Step{
		ID:          ref.ID,
		Index:       ref.Index,
		Kind:        run.StepTermination,
		StartedAt:   now,
		FinishedAt:  &now,
		Termination: &run.TerminationRecord{Reason: dec.reason, Detail: dec.detail},
	}
	if err := st.AppendStep(step); err != nil {
		d.log.Error("termination append rejected", "run_id", st.RunID, "err", err)
		return
	}
	telemetry.Emit("run_terminated", map[string]any{
		"run_id": st.RunID,
		"status": string(dec.status),
		"reason": string(dec.reason),
		"detail": dec.detail,
	})
}

// notifyChunk forwards one stream notification to every observer, isolating
// the loop from observer panics.
func (d *Driver) notifyChunk(chunk run.StreamChunk) {
	for _, o := range d.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Warn("observer panic on stream chunk", "panic", r)
				}
			}()
			o.OnStreamChunk(chunk)
		}()
	}
}

// notifyFinished reports the result to every observer, isolating the caller
// from observer panics.
func (d *Driver) notifyFinished(res *run.Result) {
	for _, o := range d.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Warn("observer panic on run finished", "panic", r)
				}
			}()
			o.OnRunFinished(res)
		}()
	}
}
