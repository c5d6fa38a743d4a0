package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

const previewWidth = 80

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Preview flattens s to one line and truncates it to a fixed display width,
// counting wide (CJK) runes as two cells.
func Preview(s string) string {
	flat := strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(flat, previewWidth, "...")
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
