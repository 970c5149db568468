package riot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itbasis/go-clock"
)

// ---- fake Riot API ----

type fakeRiot struct {
	srv        *httptest.Server
	idRequests atomic.Int32
	throttled  atomic.Int32
	lastQuery  atomic.Value
}

func newFakeRiot(t *testing.T) *fakeRiot {
	t.Helper()
	f := &fakeRiot{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Riot-Token") != "key" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/riot/account/v1/accounts/by-riot-id/{name}/{tag}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") == "ghost" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"puuid":"p-` + chi.URLParam(r, "name") + `","gameName":"` + chi.URLParam(r, "name") + `","tagLine":"` + chi.URLParam(r, "tag") + `"}`))
	})
	r.Get("/tft/match/v1/matches/by-puuid/{puuid}/ids", func(w http.ResponseWriter, r *http.Request) {
		f.idRequests.Add(1)
		f.lastQuery.Store(r.URL.RawQuery)
		w.Write([]byte(`["NA1_2","NA1_1"]`))
	})
	r.Get("/tft/match/v1/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		if f.throttled.Add(-1) >= 0 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"metadata":{"match_id":"` + chi.URLParam(r, "id") + `"}}`))
	})
	r.Get("/tft/summoner/v1/summoners/by-puuid/{puuid}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"s1","puuid":"` + chi.URLParam(r, "puuid") + `"}`))
	})
	r.Get("/tft/league/v1/entries/by-summoner/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"queueType":"RANKED_TFT_TURBO","tier":"ORANGE","rank":"I","leaguePoints":0},
			{"queueType":"RANKED_TFT_DOUBLE_UP","tier":"GOLD","rank":"II","leaguePoints":42}]`))
	})
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeRiot, key string) *Client {
	t.Helper()
	c, err := NewClient(key, "americas", "na1", WithBaseURL(f.srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// ---- client ----

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient("", "americas", "na1"); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := NewClient("key", "mars", "na1"); err == nil {
		t.Error("expected error for unknown region")
	}
}

func TestAccountByRiotID(t *testing.T) {
	c := newTestClient(t, newFakeRiot(t), "key")
	acct, err := c.AccountByRiotID(context.Background(), "alice", "NA1")
	if err != nil {
		t.Fatalf("AccountByRiotID: %v", err)
	}
	if acct.PUUID != "p-alice" || acct.TagLine != "NA1" {
		t.Errorf("account = %+v", acct)
	}

	_, err = c.AccountByRiotID(context.Background(), "ghost", "NA1")
	if !errors.Is(err, ErrNotFound) || StatusOf(err) != http.StatusNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestForbidden(t *testing.T) {
	c := newTestClient(t, newFakeRiot(t), "wrong")
	_, err := c.AccountByRiotID(context.Background(), "alice", "NA1")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestMatchIDs_CachedAndQuery(t *testing.T) {
	f := newFakeRiot(t)
	c := newTestClient(t, f, "key")
	q := MatchIDsQuery{Start: 100, Count: 50, StartTime: 1700000000}
	for i := 0; i < 2; i++ {
		ids, err := c.MatchIDs(context.Background(), "p-alice", q)
		if err != nil || len(ids) != 2 || ids[0] != "NA1_2" {
			t.Fatalf("MatchIDs = %v, %v", ids, err)
		}
	}
	if n := f.idRequests.Load(); n != 1 {
		t.Errorf("id requests = %d, want 1 (second served from cache)", n)
	}
	if got := f.lastQuery.Load().(string); got != "count=50&start=100&startTime=1700000000" {
		t.Errorf("query = %q", got)
	}
}

func TestMatch_RetriesAfter429(t *testing.T) {
	f := newFakeRiot(t)
	f.throttled.Store(2)
	c := newTestClient(t, f, "key")
	body, err := c.Match(context.Background(), "NA1_1")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if string(body) != `{"metadata":{"match_id":"NA1_1"}}` {
		t.Errorf("body = %s", body)
	}
}

func TestMatch_GivesUpAfterRetries(t *testing.T) {
	f := newFakeRiot(t)
	f.throttled.Store(10)
	c := newTestClient(t, f, "key")
	_, err := c.Match(context.Background(), "NA1_1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
		t.Errorf("err = %v, want 429 APIError", err)
	}
}

func TestRank(t *testing.T) {
	c := newTestClient(t, newFakeRiot(t), "key")
	if got := c.Rank(context.Background(), "p-alice"); got != "GOLD II (42 LP)" {
		t.Errorf("Rank = %q", got)
	}
	bad := newTestClient(t, newFakeRiot(t), "wrong")
	if got := bad.Rank(context.Background(), "p-alice"); got != Unranked {
		t.Errorf("Rank = %q, want Unranked on failure", got)
	}
}

// ---- rank formatting ----

func TestFormatRank(t *testing.T) {
	entries := []LeagueEntry{
		{QueueType: "RANKED_TFT_DOUBLE_UP", Tier: "GOLD", Rank: "II", LeaguePoints: 42},
		{QueueType: "RANKED_TFT", Tier: "PLATINUM", Rank: "IV", LeaguePoints: 10},
	}
	if got := FormatRank(entries); got != "PLATINUM IV (10 LP)" {
		t.Errorf("FormatRank = %q", got)
	}
	if got := FormatRank([]LeagueEntry{{QueueType: "PAIRS", Tier: "X", Rank: "I"}}); got != "X I (0 LP)" {
		t.Errorf("FormatRank = %q, want first entry", got)
	}
	if got := FormatRank(nil); got != Unranked {
		t.Errorf("FormatRank(nil) = %q", got)
	}
}

// ---- limiter ----

func TestLimiter_SecondWindow(t *testing.T) {
	mock := clock.NewMock()
	l := newLimiter(mock, discardLogger())
	for i := 0; i < requestsPerSecond; i++ {
		if wait := l.reserve(); wait != 0 {
			t.Fatalf("request %d waited %s", i, wait)
		}
	}
	if wait := l.reserve(); wait != time.Second {
		t.Errorf("wait = %s, want 1s", wait)
	}
	mock.Add(time.Second)
	if wait := l.reserve(); wait != 0 {
		t.Errorf("wait after window = %s, want 0", wait)
	}
}

func TestLimiter_TwoMinuteWindow(t *testing.T) {
	mock := clock.NewMock()
	l := newLimiter(mock, discardLogger())
	for i := 0; i < requestsPer2Min; i++ {
		for l.reserve() != 0 {
			mock.Add(time.Second)
		}
	}
	// 90 requests over the first 5 seconds; the oldest leaves the window at 2m.
	wait := l.reserve()
	if wait <= time.Minute || wait > 2*time.Minute {
		t.Errorf("wait = %s, want close to 2m", wait)
	}
}
