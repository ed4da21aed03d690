package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug().Msg("hidden")
	logger.Info().Str("definition", "orders").Msg("exported")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry["definition"] != "orders" || entry["message"] != "exported" {
		t.Errorf("Unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "console", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("Expected console output, got %q", buf.String())
	}
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("Expected non-JSON output, got %q", buf.String())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"bad level", "loud", "json"},
		{"bad format", "info", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.level, tt.format, &bytes.Buffer{}); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
