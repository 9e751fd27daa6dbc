package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug lowercase", "debug", slog.LevelDebug},
		{"DEBUG uppercase", "DEBUG", slog.LevelDebug},
		{"Debug mixed", "Debug", slog.LevelDebug},
		{"info lowercase", "info", slog.LevelInfo},
		{"INFO uppercase", "INFO", slog.LevelInfo},
		{"warn lowercase", "warn", slog.LevelWarn},
		{"WARN uppercase", "WARN", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error lowercase", "error", slog.LevelError},
		{"ERROR uppercase", "ERROR", slog.LevelError},
		{"empty defaults to warn", "", slog.LevelWarn},
		{"invalid defaults to warn", "invalid", slog.LevelWarn},
		{"whitespace trimmed", "  DEBUG  ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "text")

	log.Info("backend connected", "backend", "github", "tools", 5)

	output := buf.String()
	if !strings.Contains(output, "backend connected") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "backend=github") {
		t.Errorf("expected backend attribute in output, got: %s", output)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json")

	log.Info("backend connected", "backend", "github")

	output := buf.String()
	if !strings.Contains(output, `"msg":"backend connected"`) {
		t.Errorf("expected JSON message in output, got: %s", output)
	}
	if !strings.Contains(output, `"backend":"github"`) {
		t.Errorf("expected JSON attribute in output, got: %s", output)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn, "text")

	log.Debug("should be filtered")
	log.Info("should also be filtered")
	if buf.Len() != 0 {
		t.Errorf("expected no output below WARN, got: %s", buf.String())
	}

	log.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected WARN output, got: %s", buf.String())
	}
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "text")

	scoped := log.With("backend", "github")
	scoped.Info("ping ok")

	if !strings.Contains(buf.String(), "backend=github") {
		t.Errorf("expected inherited attribute in output, got: %s", buf.String())
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	t.Setenv(LogFormatEnvVar, "json")

	log := NewFromEnv()
	if log == nil {
		t.Fatal("NewFromEnv returned nil")
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Debug("msg")
	log.Info("msg")
	log.Warn("msg")
	log.Error("msg")

	if log.With("key", "value") == nil {
		t.Error("Nop().With returned nil")
	}
}

func TestSetDefault(t *testing.T) {
	ResetDefault()
	defer ResetDefault()

	nop := Nop()
	SetDefault(nop)
	if Default() != nop {
		t.Error("Default() did not return the logger set via SetDefault")
	}
}

func TestDefaultInitializesOnce(t *testing.T) {
	ResetDefault()
	defer ResetDefault()

	first := Default()
	second := Default()
	if first != second {
		t.Error("Default() returned different loggers across calls")
	}
}
