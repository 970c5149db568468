package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pable/tft-duo-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func makeDuo(t *testing.T, db *DB) model.Duo {
	t.Helper()
	d := model.Duo{
		ID:          StableDuoID("puuid-b", "puuid-a"),
		PlayerAPUID: "puuid-b",
		PlayerBPUID: "puuid-a",
		GameNameA:   "Bee",
		TagLineA:    "NA1",
		GameNameB:   "Ay",
		TagLineB:    "NA1",
		Region:      "americas",
		Platform:    "na1",
		CreatedAt:   time.UnixMilli(1_700_000_000_000),
	}
	if err := db.EnsureDuo(d); err != nil {
		t.Fatalf("EnsureDuo: %v", err)
	}
	return d
}

func makeMatch(id string, at time.Time) model.Match {
	return model.Match{
		ID:           id,
		GameDatetime: at.UnixMilli(),
		SameTeam:     true,
		PlayerA:      model.PlayerSummary{PUUID: "puuid-b", Placement: 1, Traits: []model.Trait{{Name: "TFT13_Sniper", Style: 2}}},
		PlayerB:      model.PlayerSummary{PUUID: "puuid-a", Placement: 2},
	}
}

func makeEvent(id, matchID string, at time.Time) model.Event {
	payload := map[string]any{"goldAfter": 12.0}
	return model.Event{
		ID:        id,
		Type:      model.EventRollDown,
		MatchID:   matchID,
		Stage:     model.NewStage(3, 2),
		Payload:   payload,
		CreatedAt: at,
	}
}

// ---- duos ----

func TestStableDuoID(t *testing.T) {
	if StableDuoID("b", "a") != "a::b" || StableDuoID("a", "b") != "a::b" {
		t.Error("duo id must not depend on argument order")
	}
}

func TestEnsureAndResolveDuo(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)

	// A second ensure keeps the record and refreshes names.
	d2 := d
	d2.GameNameA = "Bee2"
	d2.CreatedAt = time.Now()
	if err := db.EnsureDuo(d2); err != nil {
		t.Fatalf("EnsureDuo: %v", err)
	}

	got, err := db.ResolveDuo("puuid-a::")
	if err != nil {
		t.Fatalf("ResolveDuo: %v", err)
	}
	if got.GameNameA != "Bee2" || !got.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("duo = %+v", got)
	}

	if _, err := db.ResolveDuo("nope"); !errors.Is(err, ErrDuoNotFound) {
		t.Errorf("err = %v, want ErrDuoNotFound", err)
	}
}

func TestResolveDuo_Ambiguous(t *testing.T) {
	db := openMemDB(t)
	for _, pair := range [][2]string{{"p1", "x"}, {"p1", "y"}} {
		id := StableDuoID(pair[0], pair[1])
		if err := db.EnsureDuo(model.Duo{ID: id, PlayerAPUID: pair[0], PlayerBPUID: pair[1]}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.ResolveDuo("p1::"); err == nil || errors.Is(err, ErrDuoNotFound) {
		t.Errorf("err = %v, want ambiguity error", err)
	}
	if d, err := db.ResolveDuo("p1::x"); err != nil || d.PlayerBPUID != "x" {
		t.Errorf("exact id: %+v, %v", d, err)
	}
}

// ---- matches ----

func TestUpsertMatches_RoundTripAndCap(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)
	base := time.UnixMilli(1_700_000_000_000)

	var matches []model.Match
	for i := 0; i < model.MaxDuoMatches+5; i++ {
		matches = append(matches, makeMatch(fmt.Sprintf("NA1_%04d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	if err := db.UpsertMatches(d.ID, matches); err != nil {
		t.Fatalf("UpsertMatches: %v", err)
	}
	// Re-inserting is idempotent.
	if err := db.UpsertMatches(d.ID, matches[len(matches)-1:]); err != nil {
		t.Fatalf("UpsertMatches: %v", err)
	}

	got, err := db.Matches(d.ID)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(got) != model.MaxDuoMatches {
		t.Fatalf("stored %d matches, want cap %d", len(got), model.MaxDuoMatches)
	}
	if got[0].ID != "NA1_0604" || got[0].PlayerA.Traits[0].Name != "TFT13_Sniper" {
		t.Errorf("newest = %+v", got[0])
	}
	if ok, _ := db.HasMatch(d.ID, "NA1_0000"); ok {
		t.Error("oldest matches should be trimmed")
	}
}

func TestWindow(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)
	now := time.UnixMilli(1_700_000_000_000)

	recent := makeMatch("recent", now.Add(-2*24*time.Hour))
	old := makeMatch("old", now.Add(-40*24*time.Hour))
	if err := db.UpsertMatches(d.ID, []model.Match{recent, old}); err != nil {
		t.Fatal(err)
	}
	longAgo := now.Add(-90 * 24 * time.Hour)
	events := []model.Event{
		makeEvent("e-recent-match", "recent", longAgo),
		makeEvent("e-old-match", "old", longAgo),
		makeEvent("e-unattached", "", longAgo),
		makeEvent("e-new", "old", now.Add(-time.Hour)),
	}
	if err := db.AppendEvents(d.ID, events); err != nil {
		t.Fatal(err)
	}

	w, err := db.Window(d.ID, 30, now)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(w.Matches) != 1 || w.Matches[0].ID != "recent" {
		t.Errorf("matches = %+v", w.Matches)
	}
	var ids []string
	for _, e := range w.Events {
		ids = append(ids, e.ID)
	}
	if fmt.Sprint(ids) != "[e-recent-match e-unattached e-new]" {
		t.Errorf("events = %v", ids)
	}

	if w, _ := db.Window(d.ID, 9999, now); w.Days != 365 || len(w.Matches) != 2 {
		t.Errorf("clamped window = %d days, %d matches", w.Days, len(w.Matches))
	}
}

func TestClampWindowDays(t *testing.T) {
	for in, want := range map[int]int{0: 30, -5: 1, 1: 1, 400: 365} {
		if got := ClampWindowDays(in); got != want {
			t.Errorf("ClampWindowDays(%d) = %d, want %d", in, got, want)
		}
	}
}

// ---- events and journals ----

func TestEvents_RoundTripDecodesDetail(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)
	at := time.UnixMilli(1_700_000_000_000)
	if err := db.AppendEvents(d.ID, []model.Event{makeEvent("e1", "m1", at)}); err != nil {
		t.Fatal(err)
	}
	got, err := db.Events(d.ID)
	if err != nil || len(got) != 1 {
		t.Fatalf("Events = %v, %v", got, err)
	}
	e := got[0]
	if e.Stage.Key() != "3-2" || e.MatchID != "m1" || !e.CreatedAt.Equal(at) {
		t.Errorf("event = %+v", e)
	}
	roll, ok := e.Detail.(model.RollDown)
	if !ok || roll.GoldAfter == nil || *roll.GoldAfter != 12 {
		t.Errorf("detail = %#v", e.Detail)
	}
}

func TestAddJournal(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)
	at := time.UnixMilli(1_700_000_000_000)
	j := model.Journal{ID: "j1", MatchID: "m1", PlanAt32: "roll", Executed: true, Tags: []string{"panic_roll"}, CreatedAt: at}
	derived := []model.Event{
		{ID: "e1", Type: model.EventIntentTag, MatchID: "m1", Payload: map[string]any{"tags": []any{"panic_roll"}}, CreatedAt: at},
		{ID: "e2", Type: model.EventMistakeTag, MatchID: "m1", Payload: map[string]any{"tag": "panic_roll"}, CreatedAt: at},
	}
	if err := db.AddJournal(d.ID, j, derived); err != nil {
		t.Fatalf("AddJournal: %v", err)
	}

	journals, err := db.Journals(d.ID)
	if err != nil || len(journals) != 1 {
		t.Fatalf("Journals = %v, %v", journals, err)
	}
	if !journals[0].Executed || journals[0].Tags[0] != "panic_roll" {
		t.Errorf("journal = %+v", journals[0])
	}
	events, _ := db.Events(d.ID)
	if len(events) != 2 || events[1].Tag() != "panic_roll" {
		t.Errorf("events = %+v", events)
	}
}

// ---- history, snapshots, raw queries ----

func TestPlayerHistory(t *testing.T) {
	db := openMemDB(t)
	key := HistoryKey("americas", "p1")
	if _, ok, err := db.PlayerHistory(key); ok || err != nil {
		t.Fatalf("empty history: ok=%v err=%v", ok, err)
	}
	at := time.UnixMilli(1_700_000_000_000)
	h := PlayerHistory{Key: key, MatchIDs: []string{"b", "a"}, UpdatedAt: at, LastSuccessfulSyncAt: at, Diagnostics: []byte(`{"x":1}`)}
	if err := db.SavePlayerHistory(h); err != nil {
		t.Fatal(err)
	}
	got, ok, err := db.PlayerHistory(key)
	if !ok || err != nil || len(got.MatchIDs) != 2 || !got.UpdatedAt.Equal(at) || string(got.Diagnostics) != `{"x":1}` {
		t.Errorf("history = %+v, ok=%v, err=%v", got, ok, err)
	}
}

func TestPlaybookSnapshot(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)
	if p, _, err := db.PlaybookSnapshot(d.ID); p != nil || err != nil {
		t.Fatalf("snapshot before save = %s, %v", p, err)
	}
	at := time.UnixMilli(1_700_000_000_000)
	if err := db.SavePlaybookSnapshot(d.ID, []byte(`{"openers":[]}`), at); err != nil {
		t.Fatal(err)
	}
	p, created, err := db.PlaybookSnapshot(d.ID)
	if err != nil || string(p) != `{"openers":[]}` || !created.Equal(at) {
		t.Errorf("snapshot = %s, %v, %v", p, created, err)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	makeDuo(t, db)
	cols, rows, err := db.QueryRaw("SELECT game_name_a, NULL AS missing FROM duos")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[1] != "missing" || len(rows) != 1 || rows[0][0] != "Bee" || rows[0][1] != "NULL" {
		t.Errorf("cols = %v rows = %v", cols, rows)
	}
}

func TestListDuos(t *testing.T) {
	db := openMemDB(t)
	d := makeDuo(t, db)
	at := time.UnixMilli(1_700_000_000_000)
	db.UpsertMatches(d.ID, []model.Match{makeMatch("m1", at)})
	db.AppendEvents(d.ID, []model.Event{makeEvent("e1", "m1", at)})

	list, err := db.ListDuos()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListDuos = %v, %v", list, err)
	}
	if list[0].Matches != 1 || list[0].Events != 1 || !list[0].LastGameAt.Equal(at) {
		t.Errorf("listing = %+v", list[0])
	}
}

func TestMust(t *testing.T) {
	if got := must(7, nil); got != 7 {
		t.Errorf("must = %d, want 7", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on init error")
		}
	}()
	must(0, errors.New("boom"))
}
