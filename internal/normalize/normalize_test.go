package normalize

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

const currentParticipant = `{
	"puuid": "p1",
	"placement": 3,
	"companion": {"content_ID": "c-1", "item_ID": 1001, "skin_ID": 7, "species": "PetChibi"},
	"traits": [
		{"name": "TFT13_Sniper", "num_units": 2, "style": 1, "tier_current": 1},
		{"name": "TFT13_Bruiser", "num_units": 4, "style": 2, "tier_current": 2},
		{"name": "TFT13_Scrap", "num_units": 6, "style": 2, "tier_current": 2}
	]
}`

const legacyParticipant = `{
	"puuid": "p1",
	"placement": 3,
	"companion": {"contentId": "c-1", "itemId": 1001, "skinId": 7, "species": "PetChibi"},
	"traits": [
		{"name": "TFT13_Sniper", "numUnits": 2, "style": 1, "tierCurrent": 1},
		{"name": "TFT13_Bruiser", "numUnits": 4, "style": 2, "tierCurrent": 2},
		{"name": "TFT13_Scrap", "numUnits": 6, "style": 2, "tierCurrent": 2}
	]
}`

func TestLegacyAndCurrentCompanionNamesNormalizeIdentically(t *testing.T) {
	cur := Participant(gjson.Parse(currentParticipant))
	leg := Participant(gjson.Parse(legacyParticipant))

	if !reflect.DeepEqual(cur, leg) {
		t.Errorf("legacy and current payloads differ:\ncurrent=%+v\nlegacy=%+v", cur, leg)
	}
	if cur.Companion == nil || cur.Companion.ItemID != 1001 || cur.Companion.SkinID != 7 {
		t.Errorf("companion = %+v, want itemId 1001 skinId 7", cur.Companion)
	}
	if !cur.Cosmetics.Available || cur.Cosmetics.Source != "tft-match-v1+companion" {
		t.Errorf("cosmetics = %+v, want available from companion", cur.Cosmetics)
	}
}

func TestTraitsSortedByStyleThenUnits(t *testing.T) {
	p := Participant(gjson.Parse(currentParticipant))
	want := []string{"TFT13_Scrap", "TFT13_Bruiser", "TFT13_Sniper"}
	for i, name := range want {
		if p.Traits[i].Name != name {
			t.Errorf("traits[%d] = %s, want %s", i, p.Traits[i].Name, name)
		}
	}
}

func TestMissingFieldsDefault(t *testing.T) {
	p := Participant(gjson.Parse(`{"puuid": "p9"}`))
	if p.Placement != 0 || p.PlacementOr8() != 8 {
		t.Errorf("placement = %d/%d, want 0/8", p.Placement, p.PlacementOr8())
	}
	if p.Companion != nil {
		t.Errorf("companion = %+v, want nil", p.Companion)
	}
	if p.HasAugmentsField {
		t.Error("HasAugmentsField should be false when field is absent")
	}
	if p.Cosmetics.Available || p.Arena.Available {
		t.Error("cosmetics should be unavailable with no cosmetic fields")
	}
	if len(p.Traits) != 0 || len(p.Units) != 0 {
		t.Error("expected empty traits and units")
	}
}

func TestEmptyLegacyValueDoesNotOverwrite(t *testing.T) {
	p := Participant(gjson.Parse(`{"puuid":"x","arena_id":"", "arenaId": 42}`))
	if p.Arena.ArenaID != float64(42) {
		t.Errorf("arenaId = %v, want 42", p.Arena.ArenaID)
	}
}

func TestUnitsFallBackToLegacyItems(t *testing.T) {
	p := Participant(gjson.Parse(`{"puuid":"x","units":[{"character_id":"TFT13_Jinx","tier":3,"items":[44,16]}]}`))
	if len(p.Units) != 1 || len(p.Units[0].ItemNames) != 2 || p.Units[0].ItemNames[0] != "44" {
		t.Errorf("units = %+v", p.Units)
	}
}

const rawMatch = `{
	"metadata": {"match_id": "NA1_1"},
	"info": {
		"game_datetime": 1700000000000,
		"game_version": "Version 14.3.555.1234 (Feb 01 2024/12:00:00) [PUBLIC] <Releases/14.3>",
		"queue_id": 1160,
		"tft_set_number": 10,
		"participants": [
			{"puuid": "c", "placement": 1, "partner_group_id": 2},
			{"puuid": "a", "placement": 4, "partner_group_id": 1, "augments": []},
			{"puuid": "b", "placement": 3, "partner_group_id": 1},
			{"puuid": "d", "placement": 2, "partner_group_id": 2}
		]
	}
}`

func TestMatch(t *testing.T) {
	m, err := Match([]byte(rawMatch), "fallback", "a", "b")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if m.ID != "NA1_1" {
		t.Errorf("id = %s", m.ID)
	}
	if m.Patch != "14.3" {
		t.Errorf("patch = %q, want 14.3", m.Patch)
	}
	if m.QueueLabel != "Ranked" {
		t.Errorf("queue label = %q", m.QueueLabel)
	}
	if !m.SameTeam {
		t.Error("expected sameTeam for shared partner group")
	}
	if !m.PlayerA.HasAugmentsField || m.PlayerB.HasAugmentsField {
		t.Error("augments field presence not tracked per player")
	}
	for i, want := range []string{"c", "d", "b", "a"} {
		if m.Lobby[i].PUUID != want {
			t.Errorf("lobby[%d] = %s, want %s", i, m.Lobby[i].PUUID, want)
		}
	}
}

func TestMatchMissingParticipant(t *testing.T) {
	_, err := Match([]byte(rawMatch), "x", "a", "zz")
	if !errors.Is(err, ErrParticipantMissing) {
		t.Errorf("err = %v, want ErrParticipantMissing", err)
	}
}

func TestQueueLabelUnknown(t *testing.T) {
	if got := QueueLabel(4242); got != "Queue 4242" {
		t.Errorf("QueueLabel = %q", got)
	}
}
