package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return slog.New(newHandler(os.Stdout, level))
}

// NewWithFile logs to the console and to a daily file bytereview_YYYYMMDD.log
// under dir. The returned closer releases the file.
func NewWithFile(level, dir string, now time.Time) (*slog.Logger, io.Closer, error) {
	if dir == "" {
		return New(level), nopCloser{}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return slog.New(newHandler(io.MultiWriter(os.Stdout, f), level)), f, nil
}

// FileName is the daily log file name for t.
func FileName(t time.Time) string {
	return "bytereview_" + t.Format("20060102") + ".log"
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newHandler(w io.Writer, level string) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
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
