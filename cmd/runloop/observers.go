package main

import (
	"fmt"
	"io"

	"github.com/petasbytes/runloop/run"
)

// streamPrinter mirrors assistant text to w as the model produces it, so the
// user sees the answer without waiting for the run to finish.
type streamPrinter struct {
	w io.Writer
}

func newStreamPrinter(w io.Writer) *streamPrinter {
	return &streamPrinter{w: w}
}

func (p *streamPrinter) OnStreamChunk(chunk run.StreamChunk) {
	if chunk.Done {
		fmt.Fprintln(p.w)
		return
	}
	if chunk.ContentDelta != "" {
		fmt.Fprint(p.w, chunk.ContentDelta)
	}
}

func (p *streamPrinter) OnRunFinished(*run.Result) {}
