// Package history syncs a duo's shared match history from the Riot API into
// the store, and records the manually logged events and journals.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	json "github.com/goccy/go-json"
	"github.com/itbasis/go-clock"
	"golang.org/x/sync/errgroup"

	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/normalize"
	"github.com/pable/tft-duo-metrics/internal/riot"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

// Parameter defaults and bounds.
const (
	DefaultCount      = 40
	DefaultMaxHistory = 200
	DefaultDeltaHours = 24

	minCount, maxCount           = 1, 200
	minMaxHistory, maxMaxHistory = 50, 1000
	minDeltaHours, maxDeltaHours = 1, 168

	// startTime is rewound slightly so games ending at the last sync are seen.
	startTimeSlack = 5 * time.Second
)

// Pagination modes recorded in diagnostics.
const (
	ModeDelta       = "delta"
	ModeFullRefresh = "full-refresh"
	ModeFirstLoad   = "first-load"
)

// RiotAPI is the subset of the Riot client the syncer uses.
type RiotAPI interface {
	AccountByRiotID(ctx context.Context, gameName, tagLine string) (riot.Account, error)
	MatchIDs(ctx context.Context, puuid string, q riot.MatchIDsQuery) ([]string, error)
	Match(ctx context.Context, matchID string) ([]byte, error)
	Rank(ctx context.Context, puuid string) string
}

// Params selects the duo and how much history to scan.
type Params struct {
	GameNameA, TagLineA string
	GameNameB, TagLineB string
	Region, Platform    string
	Count               int // shared matches to fetch
	MaxHistory          int // ids scanned per player
	DeltaHours          int // freshness window for delta pagination
}

// normalized trims names, lower-cases regions and clamps the numeric bounds.
func (p Params) normalized() (Params, error) {
	p.GameNameA, p.TagLineA = strings.TrimSpace(p.GameNameA), strings.TrimSpace(p.TagLineA)
	p.GameNameB, p.TagLineB = strings.TrimSpace(p.GameNameB), strings.TrimSpace(p.TagLineB)
	if p.GameNameA == "" || p.TagLineA == "" || p.GameNameB == "" || p.TagLineB == "" {
		return p, errors.New("gameName/tagLine for both players are required")
	}
	p.Region = strings.ToLower(strings.TrimSpace(p.Region))
	if p.Region == "" {
		p.Region = "americas"
	}
	if !riot.ValidRegion(p.Region) {
		return p, errors.New("region must be one of: americas, europe, asia")
	}
	p.Platform = strings.ToLower(strings.TrimSpace(p.Platform))
	if p.Platform == "" {
		p.Platform = "na1"
	}
	p.Count = clampOr(p.Count, DefaultCount, minCount, maxCount)
	p.MaxHistory = clampOr(p.MaxHistory, DefaultMaxHistory, minMaxHistory, maxMaxHistory)
	p.DeltaHours = clampOr(p.DeltaHours, DefaultDeltaHours, minDeltaHours, maxDeltaHours)
	return p, nil
}

func clampOr(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	return min(hi, max(lo, v))
}

// Diagnostics records which id strategy a player sync used.
type Diagnostics struct {
	UsedTimeWindow           bool       `json:"usedTimeWindow"`
	UsedPaginationFallback   bool       `json:"usedPaginationFallback"`
	FallbackPaginationMode   string     `json:"fallbackPaginationMode,omitempty"`
	TimeWindowFallbackReason string     `json:"timeWindowFallbackReason,omitempty"`
	PreviousSyncAt           *time.Time `json:"previousSyncAt"`
	LastSuccessfulSyncAt     *time.Time `json:"lastSuccessfulSyncAt"`
	TimeWindow               struct {
		StartTime int64 `json:"startTime"`
		Requests  int   `json:"requests"`
		IDsFound  int   `json:"idsFound"`
	} `json:"timeWindow"`
	Pagination struct {
		Requests int `json:"requests"`
		IDsFound int `json:"idsFound"`
	} `json:"pagination"`
}

// PlayerSync is one player's side of a sync.
type PlayerSync struct {
	Account     riot.Account `json:"account"`
	MatchIDs    []string     `json:"matchIds"`
	Rank        string       `json:"rank"`
	Diagnostics Diagnostics  `json:"syncDiagnostics"`
}

// Result summarizes a duo sync.
type Result struct {
	Duo       model.Duo     `json:"duo"`
	PlayerA   PlayerSync    `json:"playerA"`
	PlayerB   PlayerSync    `json:"playerB"`
	SharedIDs []string      `json:"sharedIds"`
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Matches   []model.Match `json:"-"`
}

// Syncer pulls shared duo history into the store.
type Syncer struct {
	Riot  RiotAPI
	DB    *storage.DB
	Clock clock.Clock
	Log   *slog.Logger
}

func (s *Syncer) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Syncer) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// SyncDuo resolves both players in parallel, intersects their recent match
// ids and stores every shared match not already stored.
func (s *Syncer) SyncDuo(ctx context.Context, params Params) (Result, error) {
	p, err := params.normalized()
	if err != nil {
		return Result{}, err
	}

	var a, b PlayerSync
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = s.syncPlayer(gctx, p.GameNameA, p.TagLineA, p)
		return err
	})
	g.Go(func() (err error) {
		b, err = s.syncPlayer(gctx, p.GameNameB, p.TagLineB, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	shared := intersect(a.MatchIDs, b.MatchIDs, p.Count)

	duo := model.Duo{
		ID:          storage.StableDuoID(a.Account.PUUID, b.Account.PUUID),
		PlayerAPUID: a.Account.PUUID,
		PlayerBPUID: b.Account.PUUID,
		GameNameA:   a.Account.GameName,
		TagLineA:    a.Account.TagLine,
		GameNameB:   b.Account.GameName,
		TagLineB:    b.Account.TagLine,
		Region:      p.Region,
		Platform:    p.Platform,
		CreatedAt:   s.now(),
	}
	if err := s.DB.EnsureDuo(duo); err != nil {
		return Result{}, err
	}
	// The stored record keeps its original slot assignment.
	if duo, err = s.DB.GetDuo(duo.ID); err != nil {
		return Result{}, err
	}
	if duo.PlayerAPUID != a.Account.PUUID {
		a, b = b, a
	}

	res := Result{Duo: duo, PlayerA: a, PlayerB: b, SharedIDs: shared}
	known, err := s.knownFilter(duo.ID)
	if err != nil {
		return Result{}, err
	}
	for _, id := range shared {
		if known.TestString(id) {
			stored, err := s.DB.HasMatch(duo.ID, id)
			if err != nil {
				return Result{}, err
			}
			if stored {
				res.Skipped++
				continue
			}
		}
		raw, err := s.Riot.Match(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("fetch match %s: %w", id, err)
		}
		m, err := normalize.Match(raw, id, duo.PlayerAPUID, duo.PlayerBPUID)
		if errors.Is(err, normalize.ErrParticipantMissing) {
			s.log().Warn("skipping match without both players", "match", id)
			continue
		}
		if err != nil {
			return Result{}, err
		}
		res.Matches = append(res.Matches, m)
	}
	if err := s.DB.UpsertMatches(duo.ID, res.Matches); err != nil {
		return Result{}, err
	}
	res.Fetched = len(res.Matches)
	s.log().Info("duo synced", "duo", duo.Label(), "shared", len(shared), "fetched", res.Fetched, "skipped", res.Skipped)
	return res, nil
}

// knownFilter loads the duo's stored match ids into a bloom filter. A hit is
// confirmed against the store before a fetch is skipped.
func (s *Syncer) knownFilter(duoID string) (*bloom.BloomFilter, error) {
	ids, err := s.DB.MatchIDs(duoID)
	if err != nil {
		return nil, err
	}
	f := bloom.NewWithEstimates(uint(max(model.MaxDuoMatches, len(ids))), 0.001)
	for _, id := range ids {
		f.AddString(id)
	}
	return f, nil
}

// syncPlayer resolves one player and refreshes their known match ids using
// the cheapest strategy the stored history allows.
func (s *Syncer) syncPlayer(ctx context.Context, gameName, tagLine string, p Params) (PlayerSync, error) {
	account, err := s.Riot.AccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return PlayerSync{}, fmt.Errorf("resolve %s#%s: %w", gameName, tagLine, err)
	}
	key := storage.HistoryKey(p.Region, account.PUUID)
	hist, found, err := s.DB.PlayerHistory(key)
	if err != nil {
		return PlayerSync{}, err
	}

	now := s.now()
	var previous time.Time
	if found {
		previous = hist.LastSuccessfulSyncAt
		if previous.UnixMilli() <= 0 {
			previous = hist.UpdatedAt
		}
	}
	knownIDs := hist.MatchIDs
	hasKnown := len(knownIDs) > 0
	fresh := found && hasKnown && now.Sub(hist.UpdatedAt) < time.Duration(p.DeltaHours)*time.Hour

	var diag Diagnostics
	if previous.UnixMilli() > 0 {
		diag.PreviousSyncAt = &previous
	}
	known := make(map[string]bool, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = true
	}

	var ids []string
	usedTimeWindow := false
	if previous.UnixMilli() > 0 && hasKnown {
		startTime := max(0, previous.Add(-startTimeSlack).Unix())
		diag.UsedTimeWindow = true
		diag.TimeWindow.StartTime = startTime
		delta, err := s.pages(ctx, account.PUUID, p.MaxHistory, startTime, &diag.TimeWindow.Requests, func(string) bool {
			return false
		})
		if err == nil {
			usedTimeWindow = true
			var newIDs []string
			for _, id := range delta {
				if !known[id] {
					newIDs = append(newIDs, id)
				}
			}
			diag.TimeWindow.IDsFound = len(newIDs)
			ids = head(unique(append(newIDs, knownIDs...)), p.MaxHistory)
		} else {
			if ctx.Err() != nil {
				return PlayerSync{}, ctx.Err()
			}
			diag.UsedTimeWindow = false
			diag.TimeWindowFallbackReason = timeWindowFallbackReason(err)
			s.log().Debug("time-window sync failed", "player", gameName, "reason", diag.TimeWindowFallbackReason, "err", err)
		}
	}

	if !usedTimeWindow && fresh {
		diag.UsedPaginationFallback = true
		diag.FallbackPaginationMode = ModeDelta
		page, err := s.pages(ctx, account.PUUID, p.MaxHistory, 0, &diag.Pagination.Requests, func(id string) bool {
			return known[id]
		})
		if err != nil {
			return PlayerSync{}, fmt.Errorf("match ids for %s#%s: %w", gameName, tagLine, err)
		}
		var delta []string
		for _, id := range page {
			if known[id] {
				break
			}
			delta = append(delta, id)
		}
		diag.Pagination.IDsFound = len(delta)
		ids = head(unique(append(append(delta, knownIDs...), page...)), p.MaxHistory)
	}

	if len(ids) == 0 {
		diag.UsedPaginationFallback = true
		diag.FallbackPaginationMode = ModeFirstLoad
		if hasKnown {
			diag.FallbackPaginationMode = ModeFullRefresh
		}
		ids, err = s.pages(ctx, account.PUUID, p.MaxHistory, 0, &diag.Pagination.Requests, func(string) bool { return false })
		if err != nil {
			return PlayerSync{}, fmt.Errorf("match ids for %s#%s: %w", gameName, tagLine, err)
		}
		diag.Pagination.IDsFound = len(ids)
	}

	diag.LastSuccessfulSyncAt = &now
	raw, err := json.Marshal(diag)
	if err != nil {
		return PlayerSync{}, err
	}
	ids = head(ids, p.MaxHistory)
	if err := s.DB.SavePlayerHistory(storage.PlayerHistory{
		Key:                  key,
		MatchIDs:             ids,
		UpdatedAt:            now,
		LastSuccessfulSyncAt: now,
		Diagnostics:          raw,
	}); err != nil {
		return PlayerSync{}, err
	}
	s.log().Debug("player ids refreshed", "player", gameName, "ids", len(ids),
		"timeWindow", diag.UsedTimeWindow, "mode", diag.FallbackPaginationMode)

	return PlayerSync{
		Account:     account,
		MatchIDs:    ids,
		Rank:        s.Riot.Rank(ctx, account.PUUID),
		Diagnostics: diag,
	}, nil
}

// pages walks match-id pages of up to riot.MaxPageSize until limit ids, a
// short page, or a page containing an id for which stop returns true.
func (s *Syncer) pages(ctx context.Context, puuid string, limit int, startTime int64, requests *int, stop func(string) bool) ([]string, error) {
	var out []string
	for start := 0; start < limit; start += riot.MaxPageSize {
		count := min(riot.MaxPageSize, limit-start)
		*requests++
		page, err := s.Riot.MatchIDs(ctx, puuid, riot.MatchIDsQuery{Start: start, Count: count, StartTime: startTime})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
		hit := false
		for _, id := range page {
			if stop(id) {
				hit = true
				break
			}
		}
		if hit || len(page) < count {
			break
		}
	}
	return out, nil
}

func timeWindowFallbackReason(err error) string {
	switch riot.StatusOf(err) {
	case 400:
		return "time-window-query-rejected"
	case 404:
		return "time-window-endpoint-unavailable"
	default:
		return "time-window-request-failed"
	}
}

// intersect keeps the ids of a also in b, in a's order, up to limit.
func intersect(a, b []string, limit int) []string {
	inB := make(map[string]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []string
	for _, id := range a {
		if inB[id] {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func head(ids []string, n int) []string {
	return ids[:min(n, len(ids))]
}
