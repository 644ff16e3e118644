package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DefaultsToInfoLevel(t *testing.T) {
	log := New()

	if log == nil {
		t.Fatal("expected logger to be created")
	}
	if log.Level() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", log.Level())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
}

func TestSlogLogger_SetLevel(t *testing.T) {
	log := NewWithLevel(slog.LevelInfo)

	log.SetLevel(slog.LevelError)
	if log.Level() != slog.LevelError {
		t.Errorf("expected error level after SetLevel, got %v", log.Level())
	}
}

func TestSlogLogger_HTTPLoggingToggle(t *testing.T) {
	log := New()

	if log.HTTPLoggingEnabled() {
		t.Errorf("HTTP logging should be off by default")
	}
	log.SetHTTPLogging(true)
	if !log.HTTPLoggingEnabled() {
		t.Errorf("expected HTTP logging on")
	}
	log.SetHTTPLogging(false)
	if log.HTTPLoggingEnabled() {
		t.Errorf("expected HTTP logging off")
	}
}

func TestSlogLogger_LogMethods(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := &SlogLogger{logger: slog.New(handler), level: &slog.LevelVar{}}

	tests := []struct {
		name  string
		fn    func(string, ...any)
		level string
	}{
		{"Debug", log.Debug, "DEBUG"},
		{"Info", log.Info, "INFO"},
		{"Warn", log.Warn, "WARN"},
		{"Error", log.Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("test message", "key", "value")

			output := buf.String()
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected %s in output, got %q", tt.level, output)
			}
			if !strings.Contains(output, "test message") || !strings.Contains(output, "key=value") {
				t.Errorf("expected message and attrs in output, got %q", output)
			}
		})
	}
}
