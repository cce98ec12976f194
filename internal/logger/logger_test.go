package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	_ = SetLevel("warn")
	_ = SetFormat(FormatAuto)
	SetOutput(os.Stderr)
}

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Cleanup(reset)
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetFormat(FormatJSON); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := captureJSON(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	entries := lines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["level"] != "debug" {
		t.Errorf("unexpected level: %v", entries[0]["level"])
	}
	if entries[0]["message"] != "test message arg" {
		t.Errorf("unexpected message: %v", entries[0]["message"])
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := captureJSON(t)

	Debug("hidden")
	Section("Query")

	if buf.Len() > 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestInfo_HiddenByDefault(t *testing.T) {
	buf := captureJSON(t)

	Info("quiet")

	if buf.Len() > 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLevels(t *testing.T) {
	buf := captureJSON(t)
	if err := SetLevel("info"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}

	Info("indexed %d", 3)
	Warn("slow")
	Error("failed")

	entries := lines(t, buf)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"info", "warn", "error"}
	for i, level := range want {
		if entries[i]["level"] != level {
			t.Errorf("entry %d: expected level %s, got %v", i, level, entries[i]["level"])
		}
	}
	if entries[0]["message"] != "indexed 3" {
		t.Errorf("unexpected message: %v", entries[0]["message"])
	}
}

func TestSetLevel(t *testing.T) {
	buf := captureJSON(t)

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Info("dropped")
	Debug("dropped")
	Warn("kept")

	entries := lines(t, buf)
	if len(entries) != 1 || entries[0]["message"] != "kept" {
		t.Errorf("unexpected entries: %v", entries)
	}

	if err := SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestStructuredFields(t *testing.T) {
	buf := captureJSON(t)

	SetVerbose(true)
	L().Info().Str("doc_id", "file_abc").Int("chunks", 2).Msg("document indexed")

	entries := lines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["doc_id"] != "file_abc" {
		t.Errorf("missing doc_id field: %v", entries[0])
	}
	if entries[0]["chunks"] != float64(2) {
		t.Errorf("missing chunks field: %v", entries[0])
	}
}

func TestSection_WhenVerbose(t *testing.T) {
	buf := captureJSON(t)
	SetVerbose(true)

	Section("Repair")

	entries := lines(t, buf)
	if len(entries) != 1 || entries[0]["section"] != "Repair" {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestConsoleFormat(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetFormat(FormatConsole); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}

	Warn("disk almost full")

	if !strings.Contains(buf.String(), "disk almost full") {
		t.Errorf("unexpected output: %q", buf.String())
	}
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected console output, got JSON: %q", buf.String())
	}

	if err := SetFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
