package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupDefaultsToWarn(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info should be filtered by default")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn should be logged by default")
	}
}

func TestSetupJSONDebug(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	l := Setup(&buf)
	l.Debug("archive cache hit", "code", "25")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "archive cache hit" || entry["code"] != "25" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(context.Background(), 12) {
		t.Error("discard logger should not be enabled")
	}
}
