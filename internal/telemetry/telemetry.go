// Package telemetry emits run events as JSON lines for offline inspection.
// Emission is off unless switched on via Configure or AGT_OBSERVE_JSON=1;
// the environment always wins so a shell can override loaded config.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	cfgEnabled *bool
	cfgDir     string
)

// Configure sets the emission gate and target directory from loaded
// settings. Call it once, before the run starts; it is not synchronized.
func Configure(enabled bool, dir string) {
	cfgEnabled = &enabled
	cfgDir = dir
}

func observeEnabled() bool {
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok && v != "" {
		return v == "1"
	}
	if cfgEnabled != nil {
		return *cfgEnabled
	}
	return false
}

// ObserveDir returns the directory run artifacts are written to:
// AGT_OBSERVE_DIR first, then the configured directory, then .runloop.
func ObserveDir() string {
	if dir := os.Getenv("AGT_OBSERVE_DIR"); dir != "" {
		return dir
	}
	if cfgDir != "" {
		return cfgDir
	}
	return ".runloop"
}

// Emit writes a single JSON line to <observe dir>/events.jsonl when emission
// is enabled. It augments fields with RFC3339Nano time and the event name.
func Emit(name string, fields map[string]any) {
	if !observeEnabled() {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	dir := ObserveDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}

	path := filepath.Join(dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
		return
	}
}
