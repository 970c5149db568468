package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseStage(t *testing.T) {
	cases := []struct {
		in        string
		key, text string
	}{
		{"3-2", "3-2", "3.2"},
		{"4.1", "4-1", "4.1"},
		{"5", "5-?", ""},
		{"", "?-?", ""},
		{"x-2", "?-2", ""},
	}
	for _, c := range cases {
		s := ParseStage(c.in)
		if s.Key() != c.key || s.String() != c.text {
			t.Errorf("ParseStage(%q) = key %q text %q, want %q %q", c.in, s.Key(), s.String(), c.key, c.text)
		}
	}
}

func TestNewEvent_RequiresType(t *testing.T) {
	_, err := NewEvent(RawEvent{Type: "  "}, "", "id", time.Now())
	if !errors.Is(err, ErrMissingEventType) {
		t.Errorf("err = %v, want ErrMissingEventType", err)
	}
}

func TestNewEvent_ExplicitStageWins(t *testing.T) {
	major, minor := 5, 1
	ev, err := NewEvent(RawEvent{
		Type:       "roll_down",
		Stage:      "3-2",
		StageMajor: &major,
		StageMinor: &minor,
		Payload:    map[string]any{"goldAfter": "12"},
	}, "NA1_9", "ev-1", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if ev.Stage.Key() != "5-1" {
		t.Errorf("stage = %s, want 5-1", ev.Stage.Key())
	}
	if ev.MatchID != "NA1_9" {
		t.Errorf("matchId = %q, want fallback NA1_9", ev.MatchID)
	}
	rd, ok := ev.Detail.(RollDown)
	if !ok || rd.GoldAfter == nil || *rd.GoldAfter != 12 {
		t.Errorf("detail = %#v, want RollDown goldAfter 12", ev.Detail)
	}
}

func TestDecodeDetail_UnknownType(t *testing.T) {
	d := DecodeDetail("board_snapshot", map[string]any{"tag": "panic_roll"})
	u, ok := d.(Unknown)
	if !ok || u.Kind() != "board_snapshot" {
		t.Errorf("detail = %#v, want Unknown", d)
	}
	ev := Event{Type: "board_snapshot", Payload: map[string]any{"tag": "panic_roll"}}
	if ev.Tag() != TagPanicRoll {
		t.Errorf("tag = %q", ev.Tag())
	}
}

func TestDecodeDetail_IntentTag(t *testing.T) {
	d := DecodeDetail(EventIntentTag, map[string]any{
		"planAt32": "roll A",
		"executed": true,
		"tags":     []any{"panic_roll", 4, "missed_gift"},
	})
	it, ok := d.(IntentTag)
	if !ok || !it.Executed || len(it.Tags) != 2 {
		t.Errorf("detail = %#v", d)
	}
}

func TestDuoPlacementUsesWorse(t *testing.T) {
	m := Match{PlayerA: PlayerSummary{Placement: 2}, PlayerB: PlayerSummary{}}
	if m.DuoPlacement() != 8 {
		t.Errorf("duo placement = %d, want 8 for missing placement", m.DuoPlacement())
	}
}

func TestParseEventBatch(t *testing.T) {
	batch, err := ParseEventBatch([]byte(`{"matchId":"NA1_9","events":[
		{"type":"roll_down","stage":"3-2","stageMajor":"4","payload":{"goldAfter":8}},
		{"type":"gift_sent","matchId":"NA1_1"},
		"skipped"
	]}`))
	if err != nil {
		t.Fatalf("ParseEventBatch: %v", err)
	}
	if batch.MatchID != "NA1_9" || len(batch.Events) != 2 {
		t.Fatalf("batch = %+v", batch)
	}
	first := batch.Events[0]
	if first.StageMajor == nil || *first.StageMajor != 4 || first.StageMinor != nil || first.Payload["goldAfter"] != 8.0 {
		t.Errorf("first = %+v", first)
	}

	single, err := ParseEventBatch([]byte(`{"type":"comms_snapshot"}`))
	if err != nil || len(single.Events) != 1 || single.Events[0].Type != "comms_snapshot" {
		t.Errorf("single = %+v, %v", single, err)
	}
	if _, err := ParseEventBatch([]byte(`"nope"`)); err == nil {
		t.Error("expected error for a bare string")
	}
}
