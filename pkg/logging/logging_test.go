package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.SlogLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestInit_Text(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: LevelInfo, Output: &buf})

	Info("test-subsystem", "test message %d", 42)

	output := buf.String()
	assert.Contains(t, output, "test message 42")
	assert.Contains(t, output, "subsystem=test-subsystem")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: LevelWarn, Output: &buf})

	Debug("sub", "debug message")
	Info("sub", "info message")
	Warn("sub", "warn message")
	Error("sub", errors.New("boom"), "error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
	assert.Contains(t, output, "error=boom")
}

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: LevelDebug, JSON: true, Output: &buf})

	Debug("Capture", "bound %s", "[::1]:4242")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bound [::1]:4242", entry["msg"])
	assert.Equal(t, "Capture", entry["subsystem"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestAudit_BypassesLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: LevelError, Output: &buf})

	Audit(AuditEvent{
		Action:  "state_injected",
		Outcome: "success",
		Account: "a@b.com",
		Target:  "/tmp/state.vscdb",
	})

	output := buf.String()
	assert.Contains(t, output, "[AUDIT] state_injected")
	assert.Contains(t, output, "outcome=success")
	assert.Contains(t, output, "account=a@b.com")
	assert.NotContains(t, output, "details=")
	assert.Equal(t, 1, strings.Count(output, "\n"))
}

func TestTruncateSecret(t *testing.T) {
	assert.Equal(t, "", TruncateSecret(""))
	assert.Equal(t, "****", TruncateSecret("short"))
	assert.Equal(t, "ya29...", TruncateSecret("ya29.a0AfH6SMBx"))
}
