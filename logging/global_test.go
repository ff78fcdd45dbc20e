package logging

import (
	"log/slog"
	"testing"
)

func TestPackageFunctionsBeforeInit(t *testing.T) {
	saved := DefaultLoggingService
	DefaultLoggingService = nil
	defer func() { DefaultLoggingService = saved }()

	// Must not panic without an initialized service
	Info("info message", "key", "value")
	Warn("warn message")
	Error("error message", "error", "boom")
	Debug("debug message")
}

func TestInitLoggerConsoleOnly(t *testing.T) {
	InitLogger("")

	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		t.Fatal("InitLogger should set the default service")
	}
	if DefaultLoggingService.rotating != nil {
		t.Error("Empty directory should not create a rotating file")
	}
	if err := Close(); err != nil {
		t.Errorf("Close without file should not fail, got %v", err)
	}
}

func TestInitLoggerWithDirectory(t *testing.T) {
	dir := t.TempDir()
	svc := InitLoggerWithOptions(Options{Dir: dir, Level: "debug", RetentionWeeks: 1, MaxFileSize: 1024 * 1024})
	defer func() {
		_ = Close()
		InitLogger("")
	}()

	if svc.rotating == nil {
		t.Fatal("Expected a rotating logger when a directory is provided")
	}

	Info("hello", "component", "test")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
