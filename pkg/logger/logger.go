package logger

import (
	"log/slog"
	"os"
	"strings"
)

// HandlerFactory builds a slog.Handler for the given minimum level.
type HandlerFactory func(level slog.Level) slog.Handler

func New(level string, handler HandlerFactory) *slog.Logger {
	h := handler(getSlogLevel(level))
	return slog.New(h)
}

// NewTextHandler is used for local runs where JSON lines are hard to read.
func NewTextHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}

// HandlerFor maps a LOGFORMAT value to a handler factory.
func HandlerFor(format string) HandlerFactory {
	switch strings.ToLower(format) {
	case "text", "console":
		return NewTextHandler
	default:
		return NewCloudRunHandler
	}
}

// ---- Helpers ----
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
