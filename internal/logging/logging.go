package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reloquent/kvpview/internal/config"
)

// Setup returns a text logger writing to stdout and a dated file under directory.
func Setup(level, directory string) (*slog.Logger, error) {
	if directory == "" {
		directory = config.DefaultLogDir
	}
	directory = config.ExpandHome(directory)

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	filename := fmt.Sprintf("kvpview-%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(directory, filename), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return New(io.MultiWriter(os.Stdout, file), level), nil
}

// New returns a text logger on w at the named level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard is a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, warn and error to their slog levels; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
