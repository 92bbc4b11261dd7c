// Package logging holds the process-wide slog logger. Output is JSON so the
// engine's logs can be shipped as-is and the CLI's stderr stays parseable.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	current = newJSON(os.Stderr, slog.LevelInfo)
)

func newJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func SetLogger(l *slog.Logger) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// Setup writes JSON to w at level (debug, info, warn, error; default info).
func Setup(level string, w io.Writer) {
	SetLogger(newJSON(w, ParseLevel(level)))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DiscardLogging silences logs in tests.
func DiscardLogging() {
	SetLogger(newJSON(io.Discard, slog.LevelInfo))
}
