package common

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the JSON logger every entry point installs as default.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
