package history

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itbasis/go-clock"

	"github.com/pable/tft-duo-metrics/internal/riot"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

// ---- fake Riot API ----

type fakeRiot struct {
	mu              sync.Mutex
	ids             map[string][]string // puuid -> ids, newest first
	sinceIDs        map[string][]string // puuid -> ids returned for startTime queries
	members         map[string][]string // match id -> puuids
	startTimes      []string
	rejectStartTime atomic.Bool
	matchRequests   atomic.Int32
}

func matchJSON(id string, puuids []string) string {
	var parts []string
	for i, p := range puuids {
		parts = append(parts, fmt.Sprintf(`{"puuid":%q,"placement":%d,"partner_group_id":1,"level":8,"gold_left":5,
			"total_damage_to_players":60,"traits":[{"name":"TFT13_Sniper","num_units":4,"style":2,"tier_current":2}],"units":[]}`, p, i+1))
	}
	return fmt.Sprintf(`{"metadata":{"match_id":%q},"info":{"queue_id":1160,"game_datetime":1700000000000,
		"game_version":"Version 14.3.555.1234","tft_set_number":13,"participants":[%s]}}`, id, strings.Join(parts, ","))
}

func newFakeRiot(t *testing.T) (*fakeRiot, *httptest.Server) {
	t.Helper()
	f := &fakeRiot{
		ids: map[string][]string{
			"p-alice": {"m5", "m4", "m3", "m2", "m1"},
			"p-bob":   {"m5", "m3", "m1", "x1"},
		},
		sinceIDs: map[string][]string{},
		members: map[string][]string{
			"m1": {"p-alice", "p-bob"},
			"m3": {"p-alice", "p-stranger"},
			"m5": {"p-bob", "p-alice"},
			"m6": {"p-alice", "p-bob"},
		},
	}
	r := chi.NewRouter()
	r.Get("/riot/account/v1/accounts/by-riot-id/{name}/{tag}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		fmt.Fprintf(w, `{"puuid":"p-%s","gameName":%q,"tagLine":%q}`, name, name, chi.URLParam(r, "tag"))
	})
	r.Get("/tft/match/v1/matches/by-puuid/{puuid}/ids", func(w http.ResponseWriter, r *http.Request) {
		puuid := chi.URLParam(r, "puuid")
		f.mu.Lock()
		defer f.mu.Unlock()
		ids := f.ids[puuid]
		if st := r.URL.Query().Get("startTime"); st != "" {
			if f.rejectStartTime.Load() {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.startTimes = append(f.startTimes, st)
			ids = f.sinceIDs[puuid]
		}
		var quoted []string
		for _, id := range ids {
			quoted = append(quoted, fmt.Sprintf("%q", id))
		}
		fmt.Fprintf(w, "[%s]", strings.Join(quoted, ","))
	})
	r.Get("/tft/match/v1/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.matchRequests.Add(1)
		id := chi.URLParam(r, "id")
		f.mu.Lock()
		members, ok := f.members[id]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(matchJSON(id, members)))
	})
	r.Get("/tft/summoner/v1/summoners/by-puuid/{puuid}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

// ---- helpers ----

func newSyncer(t *testing.T) (*Syncer, *fakeRiot, *clock.Mock) {
	t.Helper()
	f, srv := newFakeRiot(t)
	mock := clock.NewMock()
	mock.Set(time.UnixMilli(1_700_000_000_000))
	client, err := riot.NewClient("key", "americas", "na1", riot.WithBaseURL(srv.URL), riot.WithClock(mock))
	if err != nil {
		t.Fatal(err)
	}
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return &Syncer{Riot: client, DB: db, Clock: mock}, f, mock
}

var duoParams = Params{GameNameA: "alice", TagLineA: "NA1", GameNameB: "bob", TagLineB: "NA1"}

// ---- tests ----

func TestParams_Normalized(t *testing.T) {
	p, err := Params{GameNameA: " a ", TagLineA: "1", GameNameB: "b", TagLineB: "2", Region: "EUROPE", Count: 999, MaxHistory: 10}.normalized()
	if err != nil {
		t.Fatal(err)
	}
	if p.GameNameA != "a" || p.Region != "europe" || p.Platform != "na1" || p.Count != 200 || p.MaxHistory != 50 || p.DeltaHours != 24 {
		t.Errorf("params = %+v", p)
	}
	if _, err := (Params{GameNameA: "a", TagLineA: "1"}).normalized(); err == nil {
		t.Error("expected error for missing player B")
	}
	if _, err := (Params{GameNameA: "a", TagLineA: "1", GameNameB: "b", TagLineB: "2", Region: "mars"}).normalized(); err == nil {
		t.Error("expected error for unknown region")
	}
}

func TestSyncDuo_FirstLoad(t *testing.T) {
	s, _, _ := newSyncer(t)
	res, err := s.SyncDuo(context.Background(), duoParams)
	if err != nil {
		t.Fatalf("SyncDuo: %v", err)
	}
	if res.Duo.ID != "p-alice::p-bob" || res.Duo.GameNameA != "alice" {
		t.Errorf("duo = %+v", res.Duo)
	}
	if strings.Join(res.SharedIDs, ",") != "m5,m3,m1" {
		t.Errorf("shared = %v", res.SharedIDs)
	}
	// m3 lacks bob and is skipped.
	if res.Fetched != 2 || res.Skipped != 0 {
		t.Errorf("fetched/skipped = %d/%d", res.Fetched, res.Skipped)
	}
	d := res.PlayerA.Diagnostics
	if d.UsedTimeWindow || d.FallbackPaginationMode != ModeFirstLoad || d.Pagination.Requests != 1 || d.Pagination.IDsFound != 5 {
		t.Errorf("diagnostics = %+v", d)
	}
	if res.PlayerA.Rank != riot.Unranked {
		t.Errorf("rank = %q", res.PlayerA.Rank)
	}

	stored, err := s.DB.Matches(res.Duo.ID)
	if err != nil || len(stored) != 2 {
		t.Fatalf("stored = %d, %v", len(stored), err)
	}
	if !stored[0].SameTeam || stored[0].PlayerA.PUUID != "p-alice" {
		t.Errorf("stored match = %+v", stored[0])
	}
}

func TestSyncDuo_TimeWindowDelta(t *testing.T) {
	s, f, mock := newSyncer(t)
	first := mock.Now()
	if _, err := s.SyncDuo(context.Background(), duoParams); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.sinceIDs["p-alice"] = []string{"m6"}
	f.sinceIDs["p-bob"] = []string{"m6"}
	f.mu.Unlock()
	mock.Add(time.Hour)
	before := f.matchRequests.Load()

	res, err := s.SyncDuo(context.Background(), duoParams)
	if err != nil {
		t.Fatalf("SyncDuo: %v", err)
	}
	d := res.PlayerA.Diagnostics
	if !d.UsedTimeWindow || d.TimeWindow.IDsFound != 1 || d.UsedPaginationFallback {
		t.Errorf("diagnostics = %+v", d)
	}
	if want := fmt.Sprint(first.Unix() - 5); d.TimeWindow.StartTime != first.Unix()-5 || f.startTimes[0] != want {
		t.Errorf("startTime = %d (sent %v), want %s", d.TimeWindow.StartTime, f.startTimes, want)
	}
	if strings.Join(res.SharedIDs, ",") != "m6,m5,m3,m1" {
		t.Errorf("shared = %v", res.SharedIDs)
	}
	// m5 and m1 are stored already; m3 is still not a duo game.
	if res.Fetched != 1 || res.Skipped != 2 {
		t.Errorf("fetched/skipped = %d/%d", res.Fetched, res.Skipped)
	}
	// m6 is new; m3 comes from the client's match cache.
	if n := f.matchRequests.Load() - before; n != 1 {
		t.Errorf("match requests = %d, want 1", n)
	}
}

func TestSyncDuo_DeltaPaginationWhenTimeWindowRejected(t *testing.T) {
	s, f, mock := newSyncer(t)
	if _, err := s.SyncDuo(context.Background(), duoParams); err != nil {
		t.Fatal(err)
	}
	f.rejectStartTime.Store(true)
	f.mu.Lock()
	f.ids["p-alice"] = append([]string{"m6"}, f.ids["p-alice"]...)
	f.mu.Unlock()
	mock.Add(time.Hour)

	res, err := s.SyncDuo(context.Background(), duoParams)
	if err != nil {
		t.Fatalf("SyncDuo: %v", err)
	}
	d := res.PlayerA.Diagnostics
	if d.UsedTimeWindow || d.TimeWindowFallbackReason != "time-window-query-rejected" ||
		d.FallbackPaginationMode != ModeDelta || d.Pagination.IDsFound != 1 {
		t.Errorf("diagnostics = %+v", d)
	}
	if res.PlayerA.MatchIDs[0] != "m6" || len(res.PlayerA.MatchIDs) != 6 {
		t.Errorf("ids = %v", res.PlayerA.MatchIDs)
	}
}

func TestIntersectUniqueHead(t *testing.T) {
	if got := intersect([]string{"a", "b", "c", "d"}, []string{"d", "b", "c"}, 2); strings.Join(got, ",") != "b,c" {
		t.Errorf("intersect = %v", got)
	}
	if got := unique([]string{"a", "", "b", "a"}); strings.Join(got, ",") != "a,b" {
		t.Errorf("unique = %v", got)
	}
	if got := head([]string{"a"}, 3); len(got) != 1 {
		t.Errorf("head = %v", got)
	}
}
