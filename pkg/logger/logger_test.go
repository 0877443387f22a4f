package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := make(map[string]interface{})
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WithRun(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	log.WithRun("01HZX").WithField("component", "analyzer").Info("started")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0]["run_id"] != "01HZX" || entries[0]["component"] != "analyzer" {
		t.Errorf("Unexpected fields: %v", entries[0])
	}
	if entries[0]["message"] != "started" {
		t.Errorf("Expected message 'started', got %v", entries[0]["message"])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn", Format: "json"}, &buf)

	log.Info("hidden")
	log.Warn("shown")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["message"] != "shown" {
		t.Errorf("Expected only the warning, got %v", entries)
	}
}

func TestStepReporter_Advance(t *testing.T) {
	var buf bytes.Buffer
	sr := NewStepReporter(4, NewWithWriter(Config{Level: "info", Format: "json"}, &buf))

	sr.Advance(1, "Generating seed keywords")
	sr.Advance(9, "Assembling report")

	step, total, pct := sr.Current()
	if step != 4 || total != 4 || pct != 100 {
		t.Errorf("Expected 4/4 at 100%%, got %d/%d at %.0f%%", step, total, pct)
	}
	if sr.Message() != "Assembling report" {
		t.Errorf("Unexpected message %q", sr.Message())
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0]["message"] != "Step 1/4: Generating seed keywords" || entries[0]["progress"] != "25%" {
		t.Errorf("Unexpected first entry: %v", entries[0])
	}
}
