package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// newLogger builds the CLI logger: colored, human-readable lines on w.
// AGT_DEBUG=1 lowers the level to debug; NO_COLOR disables color.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("AGT_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
		NoColor:    os.Getenv("NO_COLOR") != "",
	}))
}
