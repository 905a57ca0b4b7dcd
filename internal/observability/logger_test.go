package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/todo/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_FileOutput(t *testing.T) {
	base := t.TempDir()
	cfg := models.LogConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		File:       filepath.Join("logs", "todo.log"),
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}

	logger, closeFn, err := NewLogger(cfg, base)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("hello from test", zap.String("task_id", "abc"))
	if err := closeFn(); err != nil {
		t.Fatalf("closing logger: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, "logs", "todo.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"message":"hello from test"`, `"task_id":"abc"`, `"level":"debug"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}
}

func TestNewLogger_LevelFiltersDebug(t *testing.T) {
	base := t.TempDir()
	cfg := models.LogConfig{Level: "warn", Format: "console", Output: "file", File: "todo.log"}

	logger, closeFn, err := NewLogger(cfg, base)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("should be dropped")
	logger.Warn("should be kept")
	_ = closeFn()

	data, _ := os.ReadFile(filepath.Join(base, "todo.log"))
	if strings.Contains(string(data), "should be dropped") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(string(data), "should be kept") {
		t.Error("warn message missing")
	}
}

func TestNewLogger_UnknownOutput(t *testing.T) {
	if _, _, err := NewLogger(models.LogConfig{Output: "syslog"}, t.TempDir()); err == nil {
		t.Fatal("expected error for unknown output")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
