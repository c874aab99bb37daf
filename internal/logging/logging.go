package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return newWith(os.Stdout, level)
}

// NewWithRunLog tees the console logger into a plain-text run log file,
// truncated per run. When the file cannot be created the console logger is
// returned alone with the error; the run proceeds.
func NewWithRunLog(level, path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return New(level), nil, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return New(level), nil, err
	}

	return newWith(io.MultiWriter(os.Stdout, f), level), f, nil
}

func newWith(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
