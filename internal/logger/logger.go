// Package logger configures the process-wide slog logger from the
// environment.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds a logger writing to w and installs it as slog's default.
// LOG_LEVEL selects debug, info, warn or error (default warn, so the
// console shows only progress lines); LOG_FORMAT=json selects JSON output.
func Setup(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := slog.LevelWarn
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
