package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRiotID(t *testing.T) {
	cases := []struct {
		in        string
		name, tag string
		wantErr   bool
	}{
		{"Alice#NA1", "Alice", "NA1", false},
		{"  Big Bob # euw ", "Big Bob", "euw", false},
		{"NoTag", "", "", true},
		{"#NA1", "", "", true},
		{"Alice#", "", "", true},
	}
	for _, c := range cases {
		name, tag, err := parseRiotID(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseRiotID(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRiotID(%q): %v", c.in, err)
			continue
		}
		if name != c.name || tag != c.tag {
			t.Errorf("parseRiotID(%q) = %q, %q; want %q, %q", c.in, name, tag, c.name, c.tag)
		}
	}
}

func resetEventFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		eventType, eventMatch, eventStage, eventActor, eventTarget, eventPayload, eventFile = "", "", "", "", "", "", ""
	})
}

func TestEventBatchFromFlags_Single(t *testing.T) {
	resetEventFlags(t)
	eventType, eventMatch, eventStage, eventActor = "roll_down", "NA1_1", "4-1", "a"
	eventPayload = `{"goldBefore":52,"goldAfter":8}`

	batch, err := eventBatchFromFlags()
	if err != nil {
		t.Fatalf("eventBatchFromFlags: %v", err)
	}
	if len(batch.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch.Events))
	}
	e := batch.Events[0]
	if e.Type != "roll_down" || e.MatchID != "NA1_1" || e.Stage != "4-1" || e.ActorSlot != "a" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.Payload["goldAfter"] != float64(8) {
		t.Errorf("goldAfter = %v, want 8", e.Payload["goldAfter"])
	}
}

func TestEventBatchFromFlags_Errors(t *testing.T) {
	resetEventFlags(t)
	if _, err := eventBatchFromFlags(); err == nil {
		t.Error("expected error without --type or --file")
	}
	eventType, eventPayload = "gift_sent", "[1,2]"
	if _, err := eventBatchFromFlags(); err == nil {
		t.Error("expected error for non-object payload")
	}
}

func TestEventBatchFromFlags_File(t *testing.T) {
	resetEventFlags(t)
	path := filepath.Join(t.TempDir(), "events.json")
	data := `[{"type":"gift_sent","stage":"2-5"},{"type":"rescue_arrival","stage":"4-2"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	eventFile, eventMatch = path, "NA1_9"

	batch, err := eventBatchFromFlags()
	if err != nil {
		t.Fatalf("eventBatchFromFlags: %v", err)
	}
	if len(batch.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(batch.Events))
	}
	if batch.MatchID != "NA1_9" {
		t.Errorf("MatchID = %q, want fallback from --match", batch.MatchID)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "x", "y"); got != "x" {
		t.Errorf("firstNonEmpty = %q, want x", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestNonNil(t *testing.T) {
	var s []int
	if got := nonNil(s); got == nil || len(got) != 0 {
		t.Errorf("nonNil(nil) = %#v", got)
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duo.db-wal")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := removeIfExists(path); err != nil {
		t.Fatalf("removeIfExists: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := removeIfExists(path); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
	// A non-empty directory cannot be removed and surfaces the error.
	sub := filepath.Join(dir, "busy")
	if err := os.MkdirAll(filepath.Join(sub, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := removeIfExists(sub); err == nil {
		t.Error("expected error removing a non-empty directory")
	}
}
