package intel

import (
	"strings"
	"testing"
	"time"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

// ---- helpers ----

// worstFor maps a team placement to an individual placement that resolves to
// it through the no-lobby fallback.
var worstFor = map[int]int{1: 2, 2: 4, 3: 6, 4: 8}

func makeMatch(ts int64, team int) model.Match {
	return model.Match{
		ID:           "m",
		GameDatetime: ts,
		PlayerA:      model.PlayerSummary{Placement: 1, Level: 8, GoldLeft: 10, TotalDamageToPlayers: 50},
		PlayerB:      model.PlayerSummary{Placement: worstFor[team], Level: 8, GoldLeft: 10, TotalDamageToPlayers: 50},
		SameTeam:     true,
	}
}

func sequence(teams ...int) []model.Match {
	out := make([]model.Match, len(teams))
	for i, team := range teams {
		out[i] = makeMatch(int64(1000+i), team)
	}
	return out
}

// ---- tilt ----

func TestTilt_SharpDropEntersWindow(t *testing.T) {
	matches := sequence(1, 1, 1, 1, 1, 1, 3, 4, 3, 4, 3, 4)
	tilt := BuildTilt(matches, nil)
	if tilt.TiltScore < 58 || !tilt.InTiltWindow {
		t.Errorf("tilt = %+v, want score >= 58 and in window", tilt)
	}
	if tilt.PriorAvg != 1 || tilt.RecentAvg != 3.5 {
		t.Errorf("avgs = %v/%v, want 1/3.5", tilt.PriorAvg, tilt.RecentAvg)
	}
	if tilt.CurrentBadStreak != 6 || tilt.LongestBadStreak != 6 {
		t.Errorf("streaks = %d/%d", tilt.CurrentBadStreak, tilt.LongestBadStreak)
	}
	if !strings.HasPrefix(tilt.ResetRule, "Run one forced low-variance game") {
		t.Errorf("reset rule = %q", tilt.ResetRule)
	}
	if tilt.Momentum() != -2.5 {
		t.Errorf("momentum = %v, want -2.5", tilt.Momentum())
	}
}

func TestTilt_FlatTrendNotInWindow(t *testing.T) {
	tilt := BuildTilt(sequence(2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2), nil)
	if tilt.InTiltWindow || tilt.TiltScore != 0 {
		t.Errorf("tilt = %+v, want score 0 outside window", tilt)
	}
	if !strings.HasPrefix(tilt.ResetRule, "Pause 5 minutes") {
		t.Errorf("reset rule = %q", tilt.ResetRule)
	}
}

func TestTilt_NoPriorWindowHasNoDrop(t *testing.T) {
	tilt := BuildTilt(sequence(4, 4, 4), nil)
	// Only the streak term applies: 3 * 12.
	if tilt.TiltScore != 36 {
		t.Errorf("score = %v, want 36", tilt.TiltScore)
	}
}

func TestTilt_RollLeakAddsWeight(t *testing.T) {
	sc := &scorecard.Scorecard{DecisionQuality: scorecard.DecisionQuality{
		BiggestLeaks: []scorecard.Leak{{Leak: "Roll discipline leaks"}},
	}}
	// Flat placements keep the variance term at zero.
	tilt := BuildTilt(sequence(1, 1), sc)
	if tilt.TiltScore != 12 {
		t.Errorf("score = %v, want 12", tilt.TiltScore)
	}
}

// ---- win conditions ----

func splitMatch(team int) model.Match {
	m := makeMatch(0, team)
	m.PlayerA.TotalDamageToPlayers = 80
	m.PlayerB.TotalDamageToPlayers = 20
	return m
}

func lowCapMatch(team int) model.Match {
	m := makeMatch(0, team)
	m.PlayerA.Level, m.PlayerB.Level = 7, 7
	return m
}

func TestWinConditions_SampleFloors(t *testing.T) {
	sc1, sc2 := splitMatch(1), splitMatch(2)
	sc1.PlayerA.Level, sc2.PlayerA.Level = 7, 7
	matches := []model.Match{sc1, sc2, lowCapMatch(3), lowCapMatch(4)}

	wc := MineWinConditions(matches)
	if wc.Sample != 4 || wc.BaseTop2 != 50 {
		t.Errorf("sample/base = %d/%v", wc.Sample, wc.BaseTop2)
	}
	if len(wc.Conditions) != 0 {
		t.Errorf("conditions = %+v, want none below sample floors", wc.Conditions)
	}

	matches = append(matches, splitMatch(1))
	wc = MineWinConditions(matches)
	if len(wc.Conditions) != 1 || wc.Conditions[0].Title != "Tempo + Econ Split" {
		t.Fatalf("conditions = %+v, want split only", wc.Conditions)
	}
	if !strings.Contains(wc.Conditions[0].Detail, "Top2 is 100.0% vs 0.0% baseline.") {
		t.Errorf("detail = %q", wc.Conditions[0].Detail)
	}
}

func TestWinConditions_TraitPair(t *testing.T) {
	withTraits := func(team int) model.Match {
		m := makeMatch(0, team)
		m.PlayerA.Traits = []model.Trait{{Name: "TFT13_Sniper", Style: 2}}
		m.PlayerB.Traits = []model.Trait{{Name: "TFT13_Bruiser", Style: 1}}
		return m
	}
	wc := MineWinConditions([]model.Match{withTraits(1), withTraits(4), lowCapMatch(4)})
	if len(wc.Conditions) != 1 {
		t.Fatalf("conditions = %+v", wc.Conditions)
	}
	want := "When A plays Sniper and B plays Bruiser, Top2 is 50.0% (1/2)."
	if wc.Conditions[0].Detail != want {
		t.Errorf("detail = %q, want %q", wc.Conditions[0].Detail, want)
	}
}

// ---- loss autopsy ----

func TestLossAutopsy(t *testing.T) {
	bad := makeMatch(2000, 4)
	bad.ID = "bad"
	bad.PlayerA.Level, bad.PlayerB.Level = 7, 7
	bad.PlayerA.TotalDamageToPlayers, bad.PlayerB.TotalDamageToPlayers = 20, 20
	bad.PlayerA.GoldLeft = 0

	good := makeMatch(3000, 1)
	good.ID = "good"
	good.PlayerA.TotalDamageToPlayers, good.PlayerB.TotalDamageToPlayers = 100, 100

	entries := BuildLossAutopsy([]model.Match{good, bad})
	if len(entries) != 2 || entries[0].MatchID != "bad" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Confidence != 100 || len(entries[0].Factors) != 3 || entries[0].Factors[0].Weight != 35 {
		t.Errorf("bad entry = %+v", entries[0])
	}
	if entries[1].Confidence != 14 || entries[1].Factors[0].Reason != "Variance loss with no dominant structural leak" {
		t.Errorf("good entry = %+v", entries[1])
	}
}

// ---- meta pressure, timing, coordination ----

func TestMetaPressure(t *testing.T) {
	m := makeMatch(0, 1)
	m.PlayerA.Traits = []model.Trait{{Name: "TFT13_A", Style: 1}}
	m.PlayerB.Traits = []model.Trait{{Name: "TFT13_B", Style: 1}, {Name: "TFT13_A", Style: 2}}
	meta := []aggregator.TraitCount{{Name: "TFT13_A", Count: 10}, {Name: "TFT13_B", Count: 5}}

	p := BuildMetaPressure([]model.Match{m}, meta)
	if p.Score != 75 || p.Sample != 1 {
		t.Errorf("pressure = %+v, want 75 over 1 match", p)
	}
	if !strings.HasPrefix(p.Recommendation, "Your line is heavily contested") {
		t.Errorf("recommendation = %q", p.Recommendation)
	}

	empty := BuildMetaPressure(nil, nil)
	if empty.Score != 0 || !strings.HasPrefix(empty.Recommendation, "Meta pressure is manageable") {
		t.Errorf("empty pressure = %+v", empty)
	}
}

func TestTimingCoach(t *testing.T) {
	win := makeMatch(0, 1)
	win.PlayerA.Level, win.PlayerB.Level = 9, 9
	loss := lowCapMatch(4)
	sc := &scorecard.Scorecard{EconCoordination: scorecard.EconCoordination{OverlapStages: []string{"3-2", "4-1"}}}

	tc := BuildTimingCoach([]model.Match{win, loss}, sc)
	if tc.LevelDelta != 2 {
		t.Errorf("delta = %v, want 2", tc.LevelDelta)
	}
	want := "Best finishes align with higher cap timing. Your Top2 games average 9.00 level vs 7.00 in weaker results. " +
		"Roll overlap detected at 3-2, 4-1; stagger ownership to reduce dual all-ins."
	if tc.Guidance != want {
		t.Errorf("guidance = %q", tc.Guidance)
	}
}

func TestCoordination(t *testing.T) {
	c := BuildCoordination(nil, MetaPressure{})
	if c.Score != 50 || c.BestSplit != nil {
		t.Errorf("empty coordination = %+v", c)
	}
	if c.Recommendation != "Insufficient same-team sample to lock role split. Start with one tempo and one econ role. Contested pressure is moderate: comfort split is acceptable." {
		t.Errorf("recommendation = %q", c.Recommendation)
	}

	c = BuildCoordination([]model.Match{splitMatch(1), makeMatch(0, 3)}, MetaPressure{Score: 70})
	if c.BestSplit == nil || c.BestSplit.Split != "tempo-econ" || c.Score != 100 {
		t.Fatalf("coordination = %+v", c)
	}
	if !strings.HasPrefix(c.Recommendation, "Pre-game role call: run tempo / econ split first. High contested meta") {
		t.Errorf("recommendation = %q", c.Recommendation)
	}
	if len(c.Candidates) != 2 {
		t.Errorf("candidates = %+v", c.Candidates)
	}
}

// ---- fingerprints ----

func TestPlayerFingerprint(t *testing.T) {
	var matches []model.Match
	for i := 0; i < 4; i++ {
		m := makeMatch(int64(i), 1)
		m.PlayerA.Level, m.PlayerA.GoldLeft = 9, 2
		m.PlayerA.Traits = []model.Trait{{Name: "TFT13_Sniper", Style: 1}, {Name: "TFT13_Scrap", Style: 2}}
		matches = append(matches, m)
	}
	fp := BuildPlayerFingerprint(matches, model.SlotA, map[string]bool{"tft13_sniper": true, "tft13_scrap": true})
	want := []string{"Tempo Pusher", "Consistency Grinder", "Stable Top4 Closer", "Contested-Trait Fighter"}
	if strings.Join(fp.Labels, ",") != strings.Join(want, ",") {
		t.Errorf("labels = %v, want %v", fp.Labels, want)
	}
	if len(fp.TopTraits) != 2 || fp.TopTraits[0] != "Sniper" {
		t.Errorf("top traits = %v", fp.TopTraits)
	}
}

func TestDuoFingerprint(t *testing.T) {
	fp := BuildDuoFingerprint([]model.Match{splitMatch(1), splitMatch(2), makeMatch(0, 3)})
	if fp.Labels[0] != "Role-Split Duo" {
		t.Errorf("labels = %v", fp.Labels)
	}
	found := false
	for _, l := range fp.Labels {
		if l == "Complementary Boards" {
			found = true
		}
	}
	if !found {
		t.Errorf("labels = %v, want Complementary Boards with no trait overlap", fp.Labels)
	}
}

func TestBuildIntel_SortsByDate(t *testing.T) {
	matches := []model.Match{makeMatch(3, 4), makeMatch(1, 1), makeMatch(2, 1)}
	in := BuildIntel(matches, nil, aggregator.Summarize(matches))
	if in.Tilt.CurrentBadStreak != 1 {
		t.Errorf("current streak = %d, want 1 from latest match", in.Tilt.CurrentBadStreak)
	}
}

// ---- play windows ----

func matchAt(day, hour, team int) model.Match {
	// 2026-01-05 is a Monday.
	ts := time.Date(2026, 1, 5+day, hour, 15, 0, 0, time.UTC).UnixMilli()
	return makeMatch(ts, team)
}

func TestPlayWindows_BlessedAndCursed(t *testing.T) {
	matches := []model.Match{
		// Monday 20:00, both top 2.
		matchAt(0, 20, 1), matchAt(0, 20, 2),
		// Friday 23:00, both bottom 2.
		matchAt(4, 23, 4), matchAt(4, 23, 3),
		// A single game and an undated one never form a window.
		matchAt(2, 18, 1),
		makeMatch(0, 1),
	}
	pw := BuildPlayWindows(matches, time.UTC)
	if pw.Sample != 6 || pw.Top2Rate < 66 || pw.Top2Rate > 67 {
		t.Errorf("stats = %+v", pw)
	}
	if pw.Blessed == nil || pw.Blessed.Weekday != time.Monday || pw.Blessed.Hour != 20 || pw.Blessed.Top2Rate != 100 {
		t.Errorf("blessed = %+v", pw.Blessed)
	}
	if pw.Cursed == nil || pw.Cursed.Weekday != time.Friday || pw.Cursed.Hour != 23 || pw.Cursed.Top2Rate != 0 {
		t.Errorf("cursed = %+v", pw.Cursed)
	}
}

func TestPlayWindows_NeedsTwoGamesPerSlot(t *testing.T) {
	pw := BuildPlayWindows([]model.Match{matchAt(0, 10, 1), matchAt(1, 10, 4)}, time.UTC)
	if pw.Blessed != nil || pw.Cursed != nil {
		t.Errorf("windows = %+v / %+v, want none", pw.Blessed, pw.Cursed)
	}
	if pw.WinRate != 50 || pw.AvgPlace != 2.5 {
		t.Errorf("stats = %+v", pw)
	}
}
