// Package report persists finished runs as JSON transcripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/petasbytes/runloop/run"
)

// Writer lands one JSON transcript per finished run under <dir>/runs. It is
// an observer: failures are logged and swallowed, never surfaced to the loop.
type Writer struct {
	dir string
	log *slog.Logger
}

func NewWriter(dir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{dir: dir, log: log}
}

// Path returns the transcript location for a run id.
func (w *Writer) Path(runID string) string {
	return filepath.Join(w.dir, "runs", runID+".json")
}

func (w *Writer) OnRunFinished(res *run.Result) {
	if res == nil || res.State == nil {
		return
	}
	if err := w.write(res); err != nil {
		w.log.Warn("run transcript not written", "run_id", res.RunID, "err", err)
	}
}

func (w *Writer) OnStreamChunk(run.StreamChunk) {}

func (w *Writer) write(res *run.Result) error {
	b, err := json.MarshalIndent(res.State, "", " ")
	if err != nil {
		return fmt.Errorf("report: marshal run state: %w", err)
	}
	path := w.Path(res.RunID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
