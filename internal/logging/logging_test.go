package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"":        slog.LevelDebug,
		"verbose": slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithFileWritesDailyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	day := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

	logger, closer, err := NewWithFile("info", dir, day)
	if err != nil {
		t.Fatalf("NewWithFile: %v", err)
	}
	logger.Info("page served", "page", 2)
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "bytereview_20240307.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "page served") || !strings.Contains(out, "page=2") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
}

func TestNewWithFileWithoutDir(t *testing.T) {
	t.Parallel()

	logger, closer, err := NewWithFile("info", "", time.Now())
	if err != nil || logger == nil || closer == nil {
		t.Fatalf("expected console logger, got %v %v %v", logger, closer, err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
