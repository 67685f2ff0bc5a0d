// Structured logging tests
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, format OutputFormat) *Logger {
	logger := New("test")
	logger.SetWriter(buf)
	logger.SetLevel(DEBUG)
	logger.SetColorize(false)
	logger.SetFormat(format)
	return logger
}

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatText)

	logger.Info("offset %.2f", 0.25)

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "test:") {
		t.Errorf("expected prefix 'test:', got: %s", output)
	}
	if !strings.Contains(output, "offset 0.25") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatText)
	logger.SetLevel(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected DEBUG and INFO to be filtered, got: %s", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected WARN to pass, got: %s", buf.String())
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected ERROR to pass, got: %s", buf.String())
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatJSON)

	logger.WithFields(Fields{"pending": 0.5, "unit": "0.1mm"}).Info("adjusted")

	var entry JSONLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v, output: %s", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Logger != "test" || entry.Message != "adjusted" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["unit"] != "0.1mm" {
		t.Errorf("expected unit field, got: %v", entry.Fields)
	}
}

func TestLoggerPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatJSON).With("session", "abc")

	logger.WithField("delta", -0.5).Info("chunk")

	var entry JSONLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry.Fields["session"] != "abc" {
		t.Errorf("expected session field, got: %v", entry.Fields)
	}
	if entry.Fields["delta"] != -0.5 {
		t.Errorf("expected delta field, got: %v", entry.Fields)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatText)

	logger.WithError(errors.New("link down")).Error("write failed")

	if !strings.Contains(buf.String(), "error=link down") {
		t.Errorf("expected error field, got: %s", buf.String())
	}
}

func TestLoggerWithPrefixSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatText)

	child := logger.WithPrefix("marlin")
	logger.SetLevel(ERROR)
	child.Info("filtered by parent level")
	if buf.Len() != 0 {
		t.Errorf("expected child to follow parent level, got: %s", buf.String())
	}

	child.Error("child message")
	if !strings.Contains(buf.String(), "marlin:") {
		t.Errorf("expected prefix 'marlin:', got: %s", buf.String())
	}
}

func TestLoggerCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatText)
	logger.SetCaller(true)

	logger.Info("caller test")
	logger.WithField("k", 1).Info("entry caller test")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "logger_test.go:") {
			t.Errorf("expected caller info 'logger_test.go:', got: %s", line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"WARNING", WARN},
		{"error", ERROR},
		{"invalid", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		if result := ParseLevel(tt.input); result != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Setenv("BABYSTEP_LOG_LEVEL", "error")
	t.Setenv("BABYSTEP_LOG_FORMAT", "json")

	var buf bytes.Buffer
	logger := New("env")
	logger.SetWriter(&buf)
	ConfigureFromEnv(logger)

	if logger.GetLevel() != ERROR {
		t.Errorf("expected ERROR level, got %v", logger.GetLevel())
	}
	logger.Error("json please")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}
}

func TestGetLogger(t *testing.T) {
	logger := GetLogger("controller")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	if logger.prefix != "controller" {
		t.Errorf("expected prefix 'controller', got %q", logger.prefix)
	}
}

func BenchmarkLoggerFiltered(b *testing.B) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, FormatText)
	logger.SetLevel(ERROR)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("filtered %d", i)
	}
}
