package telemetry

import (
	"strings"
	"testing"
)

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	var lines []string
	logger := NewConsoleLogger(LevelWarn)
	logger.print = func(s string) { lines = append(lines, s) }

	logger.Debug(CategoryStore, "debug message")
	logger.Info(CategoryStore, "info message")
	logger.Warn(CategoryStore, "warn message")
	logger.Error(CategoryStore, "error message")

	joined := strings.Join(lines, "\n")
	if strings.Contains(joined, "debug message") || strings.Contains(joined, "info message") {
		t.Errorf("expected debug/info filtered out at WARN level, got: %q", joined)
	}
	if !strings.Contains(joined, "warn message") || !strings.Contains(joined, "error message") {
		t.Errorf("expected warn/error present, got: %q", joined)
	}
}

func TestConsoleLoggerIncludesCategoryAndLevel(t *testing.T) {
	var lines []string
	logger := NewConsoleLogger(LevelDebug)
	logger.print = func(s string) { lines = append(lines, s) }

	logger.Info(CategoryQueue, "drained")

	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[INFO]") || !strings.Contains(lines[0], "[queue]") {
		t.Errorf("expected level/category prefix, got %q", lines[0])
	}
}

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	var l NoOpLogger
	l.Debug(CategoryStore, "x")
	l.Info(CategoryStore, "x")
	l.Warn(CategoryStore, "x")
	l.Error(CategoryStore, "x")
	if l.IsDebugEnabled(CategoryStore) || l.IsInfoEnabled(CategoryStore) {
		t.Error("NoOpLogger should report every level disabled")
	}
}

func TestLogLevelAndCategoryStrings(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelOff}
	names := []string{"DEBUG", "INFO", "WARN", "ERROR", "OFF"}
	for i, lvl := range levels {
		if lvl.String() != names[i] {
			t.Errorf("level %d: expected %q, got %q", i, names[i], lvl.String())
		}
	}

	cats := []LogCategory{CategoryStore, CategoryQueue, CategorySubject, CategoryEffect, CategoryLifecycle}
	catNames := []string{"store", "queue", "subject", "effect", "lifecycle"}
	for i, c := range cats {
		if c.String() != catNames[i] {
			t.Errorf("category %d: expected %q, got %q", i, catNames[i], c.String())
		}
	}
}
