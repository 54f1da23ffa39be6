// Package logging provides the file-backed structured logger.
// Entries are appended to <dataDir>/logs/focus.log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the log file inside the logs directory.
const FileName = "focus.log"

// Path returns the log file location for a data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "logs", FileName)
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New opens the log file under dataDir and returns a logger writing to it.
// The returned closer must be closed on shutdown. If dataDir is empty
// logging is disabled and a discard logger is returned.
func New(dataDir string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if dataDir == "" {
		return Discard(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "logs"), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create logs directory: %w", err)
	}

	f, err := os.OpenFile(Path(dataDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler), f, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
