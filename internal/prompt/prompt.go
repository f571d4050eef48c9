// Package prompt builds the seed messages a run starts from.
package prompt

import (
	"fmt"
	"strings"

	"github.com/petasbytes/runloop/run"
)

const systemPreamble = `You are a task-solving agent. Work on the task you are given, using the available tools when they help.

Rules:
- Call a tool only when its result is needed to make progress.
- When you have everything you need, answer directly with no tool calls; that answer ends the run.
- Keep answers short and factual.`

// Preparer renders the task and tool catalog into the system and user
// messages that seed a run's conversation.
type Preparer struct{}

func NewPreparer() Preparer { return Preparer{} }

func (Preparer) Prepare(task run.Task, cfg run.Config, catalog []run.ToolSpec) (run.Message, run.Message, error) {
	if strings.TrimSpace(task.Description) == "" {
		return run.Message{}, run.Message{}, fmt.Errorf("prompt: task %q has no description", task.ID)
	}

	var sb strings.Builder
	sb.WriteString(systemPreamble)
	if len(catalog) > 0 {
		sb.WriteString("\n\nAvailable tools:\n")
		for _, spec := range catalog {
			if spec.Description != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, spec.Description)
			} else {
				fmt.Fprintf(&sb, "- %s\n", spec.Name)
			}
		}
	} else {
		sb.WriteString("\n\nNo tools are available for this task; answer directly.\n")
	}
	if cfg.MaxSteps > 0 {
		fmt.Fprintf(&sb, "\nYou have at most %d turns to finish.", cfg.MaxSteps)
	}

	var ub strings.Builder
	ub.WriteString(task.Description)
	if len(task.Input) > 0 {
		ub.WriteString("\n\nTask input:\n```json\n")
		ub.Write(task.Input)
		ub.WriteString("\n```")
	}

	return run.NewSystemMessage(sb.String()), run.NewUserMessage(ub.String()), nil
}
