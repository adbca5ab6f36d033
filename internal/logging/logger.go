package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
// Development builds log at DEBUG.
func Setup(development bool) slog.Handler {
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return handler
}
