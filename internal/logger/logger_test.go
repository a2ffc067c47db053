package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		output      string
		shouldError bool
	}{
		{"debug text stderr", "debug", "text", "stderr", false},
		{"info json stdout", "info", "json", "stdout", false},
		{"warning alias", "WARNING", "text", "", false},
		{"error json stderr", "error", "json", "stderr", false},
		{"invalid level", "invalid", "text", "stderr", true},
		{"unwritable file", "info", "text", filepath.Join(t.TempDir(), "missing", "x.log"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format, tt.output)

			if tt.shouldError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if log == nil {
				t.Fatal("Logger is nil")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"Info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestLoggerToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	log, err := New("info", "text", logFile)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	log.Info("test message", "key", "value")
	log.Debug("hidden message")
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test message") {
		t.Error("Log file doesn't contain expected message")
	}
	if strings.Contains(string(content), "hidden message") {
		t.Error("Debug message written at info level")
	}
}

func TestLoggerJSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.json.log")

	log, err := New("debug", "json", logFile)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	log.With("query_id", "abc").Named("engine").Warn("json test", "number", 42)
	log.Zap().Debug("structured", zap.String("table", "friends"))
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	for _, want := range []string{`"msg":"json test"`, `"query_id":"abc"`, `"logger":"engine"`, `"number":42`, `"table":"friends"`} {
		if !bytes.Contains(content, []byte(want)) {
			t.Errorf("JSON log doesn't contain %s:\n%s", want, content)
		}
	}
}

func TestLoggerNop(t *testing.T) {
	log := NewNop()
	if log == nil {
		t.Fatal("NewNop returned nil")
	}

	// Should not panic
	log.Info("test")
	log.Debug("test")
	log.Warn("test")
	log.Error("test")
	log.With("component", "test").Info("with context")
	log.Named("subsystem").Info("with name")
	log.Zap().Info("structured")
}
