package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := GetLevel()
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"", INFO},
		{"debug", DEBUG},
		{" Warn ", WARN},
		{"warning", WARN},
		{"ERROR", ERROR},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(WARN)

	InfoC("routing", "hidden")
	WarnC("routing", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] routing: shown")
}

func TestFieldsAreSorted(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(DEBUG)

	DebugCF("reconcile", "plan", map[string]any{"update": 1, "create": 2, "delete": 0})

	assert.Contains(t, buf.String(), "{create=2, delete=0, update=1}")
}

func TestFileLoggingWritesJSON(t *testing.T) {
	captureOutput(t)
	SetLevel(INFO)

	path := filepath.Join(t.TempDir(), "picoslash.log")
	require.NoError(t, EnableFileLogging(path))
	ErrorCF("bot", "boom", map[string]any{"command": "git"})
	DisableFileLogging()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "bot", entry.Component)
	assert.Equal(t, "boom", entry.Message)
	assert.Equal(t, "git", entry.Fields["command"])
}

type maskSecret struct{ secret string }

func (m maskSecret) Redact(s string) string { return strings.ReplaceAll(s, m.secret, "***") }

func (m maskSecret) RedactFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			v = m.Redact(s)
		}
		out[k] = v
	}
	return out
}

func TestRedactorMasksMessageAndFields(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(INFO)
	SetRedactor(maskSecret{secret: "hunter2"})
	t.Cleanup(func() { SetRedactor(nil) })

	WarnCF("discord", "token hunter2 rejected", map[string]any{"error": "bad hunter2"})

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "token *** rejected {error=bad ***}")
}
