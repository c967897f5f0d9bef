package cli

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// newLogger returns a slog logger backed by the charmbracelet/log handler.
// Verbose enables debug records, which carry stack traces and raw JSON.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: verbose,
		Prefix:          "chatfmt",
	})
	return slog.New(handler)
}
