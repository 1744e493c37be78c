package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_StructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	logger.Info(ctx, "cache hit", String("payload.id", "abc123"), Int("attempt", 1))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry["msg"] != "cache hit" {
		t.Errorf("msg = %v, want %q", entry["msg"], "cache hit")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want %q", entry["level"], "info")
	}
	if entry["payload.id"] != "abc123" {
		t.Errorf("payload.id = %v, want %q", entry["payload.id"], "abc123")
	}
	if entry["attempt"] != float64(1) {
		t.Errorf("attempt = %v, want 1", entry["attempt"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("entry missing timestamp")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "dropped")
	logger.Warn(ctx, "kept")
	logger.Error(ctx, "kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithComponent("controller")

	logger.Info(context.Background(), "resolved")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["component"] != "controller" {
		t.Errorf("component = %v, want %q", entries[0]["component"], "controller")
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "connecting", String("token", "hunter2"))

	entries := decodeLines(t, &buf)
	if entries[0]["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", entries[0]["token"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
