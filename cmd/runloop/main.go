// Command runloop executes one agent run: it seeds a conversation from the
// task, loops model calls and tool dispatch until the run terminates, and
// prints the final answer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/petasbytes/runloop/internal/config"
	"github.com/petasbytes/runloop/internal/prompt"
	"github.com/petasbytes/runloop/internal/provider"
	"github.com/petasbytes/runloop/internal/report"
	"github.com/petasbytes/runloop/internal/runner"
	"github.com/petasbytes/runloop/internal/telemetry"
	"github.com/petasbytes/runloop/run"
	"github.com/petasbytes/runloop/tools"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var (
		taskFlag   = flag.String("task", "", "task description (positional arguments work too)")
		inputFlag  = flag.String("input", "", "optional structured task input, as JSON")
		cfgFlag    = flag.String("config", "", "YAML config path (default runloop.yaml when present)")
		modelFlag  = flag.String("model", "", "model name; claude* routes to Anthropic, anything else to OpenAI")
		streamFlag = flag.Bool("stream", false, "print assistant text while the model produces it")
		stepsFlag  = flag.Int("max-steps", 0, "maximum model-call iterations")
		callsFlag  = flag.Int("max-tool-calls", -1, "total tool-call budget; 0 means unbounded")
	)
	flag.Parse()

	log := newLogger(os.Stderr)

	settings, err := config.Load(*cfgFlag)
	if err != nil {
		log.Error("configuration rejected", "err", err)
		return 1
	}
	if *modelFlag != "" {
		settings.Model = *modelFlag
	}
	if settings.Model == "" {
		settings.Model = string(provider.DefaultModel)
	}
	if *stepsFlag > 0 {
		settings.MaxSteps = *stepsFlag
	}
	if *callsFlag >= 0 {
		settings.MaxToolCalls = *callsFlag
	}
	if *streamFlag {
		settings.Stream = true
	}
	telemetry.Configure(settings.ObserveJSON, settings.ObserveDir)

	desc := strings.TrimSpace(*taskFlag)
	if desc == "" {
		desc = strings.TrimSpace(strings.Join(flag.Args(), " "))
	}
	if desc == "" {
		fmt.Fprintln(os.Stderr, `usage: runloop [flags] -task "describe the task"`)
		flag.PrintDefaults()
		return 2
	}
	task := run.Task{ID: "task-" + uuid.NewString(), Description: desc}
	if *inputFlag != "" {
		if !json.Valid([]byte(*inputFlag)) {
			log.Error("task input is not valid JSON", "input", *inputFlag)
			return 2
		}
		task.Input = json.RawMessage(*inputFlag)
	}

	// Basic env check per route (the SDKs also read the key themselves).
	var caller runner.ModelCaller
	if provider.IsAnthropicModel(settings.Model) {
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			log.Error("missing ANTHROPIC_API_KEY; export it before running")
			return 1
		}
		caller = provider.NewAnthropic()
	} else {
		if os.Getenv("OPENAI_API_KEY") == "" {
			log.Error("missing OPENAI_API_KEY; export it before running")
			return 1
		}
		caller = provider.NewOpenAI()
	}

	defs := tools.Registry()
	cfg := settings.RunConfig()
	executor := tools.NewExecutor(defs, cfg.ToolCallTimeout, log)

	observers := []runner.Observer{telemetry.Sink{}, report.NewWriter(telemetry.ObserveDir(), log)}
	if settings.Stream {
		observers = append(observers, newStreamPrinter(os.Stdout))
	}

	driver, err := runner.New(caller, executor, prompt.NewPreparer(), runner.Options{
		Model:     settings.Model,
		MaxTokens: settings.MaxTokens,
		Stream:    settings.Stream,
		Catalog:   tools.Catalog(defs),
		Observers: observers,
		Log:       log,
	})
	if err != nil {
		log.Error("driver construction failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := driver.Execute(ctx, task, cfg)
	if err != nil {
		log.Error("run setup failed", "err", err)
		return 1
	}

	if res.Status != run.StatusCompleted {
		detail := res.Err
		if n := len(res.Steps); detail == "" && n > 0 && res.Steps[n-1].Termination != nil {
			detail = res.Steps[n-1].Termination.Detail
		}
		log.Error("run did not complete",
			"run_id", res.RunID,
			"status", string(res.Status),
			"reason", string(res.TerminationReason),
			"detail", detail)
		return 1
	}
	// With streaming on, the printer already wrote the text.
	if !settings.Stream && res.FinalAnswer != nil {
		fmt.Printf("\u001b[93mAnswer\u001b[0m: %s\n", res.FinalAnswer.Content)
	}
	return 0
}
