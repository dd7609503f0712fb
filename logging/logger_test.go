package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestPrismLoggerStructuredArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf, Component: "pipeline"})

	l.WithTrace("trace-1", "alice").Info("pipeline.run.completed", "degraded_agents", 0)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "pipeline.run.completed" {
		t.Errorf("message was rewritten: %v", entry["msg"])
	}
	if entry["component"] != "pipeline" || entry["trace_id"] != "trace-1" || entry["user_id"] != "alice" {
		t.Errorf("missing contextual attributes: %v", entry)
	}
	if entry["degraded_agents"] != float64(0) {
		t.Errorf("key/value args not rendered as attributes: %v", entry)
	}
	if strings.Contains(buf.String(), "%!") {
		t.Errorf("args leaked into printf formatting: %q", buf.String())
	}
}

func TestPrismLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Info("dropped", "key", "value")
	if buf.Len() != 0 {
		t.Errorf("info entry emitted below configured level: %q", buf.String())
	}

	l.Warn("kept", "key", "value")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn entry missing: %q", buf.String())
	}
}

func TestPrismLoggerWithContextDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})
	parent.WithContext("backend", "qdrant")

	parent.Info("entry")
	if strings.Contains(buf.String(), "qdrant") {
		t.Errorf("child context leaked into parent: %q", buf.String())
	}
}
