package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("view created", "view", "kvp.kvp_arab_2026_vw")
	logger.Warn("union view not found", "view", "kvp.kvp_arab_rankings_vw")

	out := buf.String()
	if strings.Contains(out, "view created") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "union view not found") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestSetupCreatesDatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := Setup("debug", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("probe ok")

	name := "kvpview-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "probe ok") {
		t.Errorf("log file missing record: %s", data)
	}
}
