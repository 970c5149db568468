package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/brief"
	"github.com/pable/tft-duo-metrics/internal/history"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// pct renders a nullable percentage; nil reads as "n/a".
func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func date(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(dateLayout)
}

func signed(v int) string {
	if v > 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func bullets(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "  * %s\n", l)
	}
}

// PrintDuoList prints all stored duos.
func PrintDuoList(w io.Writer, duos []storage.DuoListing) {
	table := newTable(w)
	table.Header("DUO", "PLAYER A", "PLAYER B", "REGION", "MATCHES", "EVENTS", "LAST GAME")
	for _, l := range duos {
		last := "-"
		if !l.LastGameAt.IsZero() {
			last = l.LastGameAt.UTC().Format(dateLayout)
		}
		table.Append(
			shortID(l.Duo.ID),
			l.Duo.GameNameA+"#"+l.Duo.TagLineA,
			l.Duo.GameNameB+"#"+l.Duo.TagLineB,
			l.Duo.Region,
			strconv.Itoa(l.Matches),
			strconv.Itoa(l.Events),
			last,
		)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 24 {
		return id[:24]
	}
	return id
}

// PrintDuoHeader prints a one-line duo header.
func PrintDuoHeader(w io.Writer, d model.Duo) {
	fmt.Fprintf(w, "\nDuo: %s  |  Region: %s/%s  |  ID: %s\n\n", d.Label(), d.Region, d.Platform, shortID(d.ID))
}

// PrintMatchTable prints stored matches, newest first, with the team
// placement and the estimated LP swing.
func PrintMatchTable(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("MATCH", "DATE", "PATCH", "QUEUE", "SAME", "A", "B", "TEAM", "LP")
	for _, m := range matches {
		team := aggregator.TeamPlacement(m)
		same := "no"
		if m.SameTeam {
			same = "yes"
		}
		table.Append(
			m.ID,
			date(m.GameDatetime),
			m.Patch,
			m.QueueLabel,
			same,
			strconv.Itoa(m.PlayerA.Placement),
			strconv.Itoa(m.PlayerB.Placement),
			strconv.Itoa(team),
			signed(aggregator.EstimatedLPDelta(team)),
		)
	}
	table.Render()
}

// PrintTrend prints team placements oldest first with a running average and
// cumulative estimated LP.
func PrintTrend(w io.Writer, matches []model.Match) {
	sorted := intel.SortByDate(matches)
	table := newTable(w)
	table.Header("#", "DATE", "TEAM", "AVG", "LP", "BAR")
	var sum float64
	lp := 0
	for i, m := range sorted {
		team := aggregator.TeamPlacement(m)
		sum += float64(team)
		lp += aggregator.EstimatedLPDelta(team)
		table.Append(
			strconv.Itoa(i+1),
			date(m.GameDatetime),
			strconv.Itoa(team),
			fmt.Sprintf("%.2f", sum/float64(i+1)),
			signed(lp),
			strings.Repeat("#", max(0, 5-team)),
		)
	}
	table.Render()
}

// PrintSync prints the outcome of a duo sync.
func PrintSync(w io.Writer, res history.Result) {
	PrintDuoHeader(w, res.Duo)
	table := newTable(w)
	table.Header("PLAYER", "RANK", "IDS", "STRATEGY", "FALLBACK REASON")
	for _, p := range []history.PlayerSync{res.PlayerA, res.PlayerB} {
		strategy := p.Diagnostics.FallbackPaginationMode
		if p.Diagnostics.UsedTimeWindow {
			strategy = "time-window"
		}
		reason := p.Diagnostics.TimeWindowFallbackReason
		if reason == "" {
			reason = "-"
		}
		table.Append(p.Account.GameName+"#"+p.Account.TagLine, p.Rank, strconv.Itoa(len(p.MatchIDs)), strategy, reason)
	}
	table.Render()
	fmt.Fprintf(w, "\nShared: %d  |  Fetched: %d  |  Already stored: %d\n", len(res.SharedIDs), res.Fetched, res.Skipped)
}

// PrintSummary prints KPIs, player rollups, lobby meta and suggestions.
func PrintSummary(w io.Writer, d model.Duo, s aggregator.Summary) {
	k := s.KPIs
	fmt.Fprintf(w, "Games together: %d  |  Same team: %d (%s)\n", k.GamesTogether, k.SameTeamGames, sampleFlag(k.SameTeamGames))
	fmt.Fprintf(w, "Avg team placement: %s  |  Team top 4: %s  |  Team wins: %s\n",
		num(k.AvgTeamPlacement), pct(k.TeamTop4Rate), pct(k.TeamWinRate))
	if k.SameTeamTop4Rate != nil && k.SameTeamGames > 0 {
		hits := int(math.Round(*k.SameTeamTop4Rate * float64(k.SameTeamGames) / 100))
		lo, hi := wilsonCI(hits, k.SameTeamGames)
		fmt.Fprintf(w, "Same-team top 4: %s  (95%% CI %.0f-%.0f%%)\n", pct(k.SameTeamTop4Rate), lo*100, hi*100)
	}
	fmt.Fprintln(w)

	table := newTable(w)
	table.Header("PLAYER", "GAMES", "AVG", "MEDIAN", "TOP4", "TOP2", "STDDEV", "DMG", "LEVEL")
	for _, r := range []struct {
		name string
		p    aggregator.PlayerRollup
	}{{d.GameNameA, s.PlayerA}, {d.GameNameB, s.PlayerB}} {
		table.Append(
			r.name,
			strconv.Itoa(r.p.Games),
			fmt.Sprintf("%.2f", r.p.AvgPlacement),
			fmt.Sprintf("%.1f", r.p.MedianPlacement),
			pct(r.p.Top4Rate),
			pct(r.p.Top2Rate),
			fmt.Sprintf("%.2f", r.p.Consistency),
			fmt.Sprintf("%.0f", r.p.AvgDamage),
			fmt.Sprintf("%.1f", r.p.AvgLevel),
		)
	}
	table.Render()

	if len(s.MetaTraits) > 0 {
		fmt.Fprintln(w, "\nLobby meta traits:")
		mt := newTable(w)
		mt.Header("TRAIT", "COUNT")
		for _, t := range s.MetaTraits {
			mt.Append(aggregator.PrettyName(t.Name), strconv.Itoa(t.Count))
		}
		mt.Render()
	}
	if len(s.MetaUnits) > 0 {
		fmt.Fprintln(w, "\nLobby meta units:")
		mu := newTable(w)
		mu.Header("UNIT", "COUNT")
		for _, u := range s.MetaUnits {
			mu.Append(aggregator.PrettyName(u.CharacterID), strconv.Itoa(u.Count))
		}
		mu.Render()
	}
	bullets(w, "Suggestions", s.Suggestions)
}

// sampleFlag labels how far a same-team sample can be trusted.
func sampleFlag(n int) string {
	switch {
	case n >= 30:
		return "OK"
	case n >= 10:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

// PrintEvents prints the event log, oldest first.
func PrintEvents(w io.Writer, events []model.Event) {
	table := newTable(w)
	table.Header("ID", "TYPE", "MATCH", "STAGE", "ACTOR", "TARGET", "CREATED")
	for _, e := range events {
		stage := e.Stage.String()
		if stage == "" {
			stage = "-"
		}
		table.Append(
			shortID(e.ID),
			string(e.Type),
			e.MatchID,
			stage,
			e.ActorSlot,
			e.TargetSlot,
			e.CreatedAt.UTC().Format(dateLayout),
		)
	}
	table.Render()
}

// PrintScorecard prints every scorecard section.
func PrintScorecard(w io.Writer, sc scorecard.Scorecard) {
	c := sc.DataCoverage
	fmt.Fprintf(w, "Coverage: timeline=%t gifts=%t comms=%t intent=%t\n\n",
		c.RoundTimelineEvents, c.GiftEvents, c.CommsSignals, c.IntentTags)

	table := newTable(w)
	table.Header("METRIC", "STATUS", "VALUE")
	g := sc.GiftEfficiency
	if g.Metrics != nil {
		table.Append("gift ROI", g.Status, pct(g.Metrics.GiftROI))
		table.Append("early gift rate", g.Status, pct(g.Metrics.EarlyGiftRate))
		table.Append("item gift rate", g.Status, pct(g.Metrics.ItemGiftRate))
		table.Append("bench waste", g.Status, pct(g.Metrics.BenchWasteRate))
	} else {
		table.Append("gift efficiency", g.Status, "n/a")
	}
	r := sc.RescueIndex
	table.Append("rescue rate", r.Status, pct(r.RescueRate))
	table.Append("clutch index", r.Status, pct(r.ClutchIndex))
	e := sc.EconCoordination
	table.Append("econ coordination", e.Status, num(e.CoordinationScore))
	dq := sc.DecisionQuality
	table.Append("decision grade", dq.EvaluationMode, fmt.Sprintf("%.0f", dq.Grade))
	table.Render()

	fp := sc.SynergyFingerprint
	fmt.Fprintf(w, "\nPrimary stabilizer: %s (confidence %.2f)  |  Carry pattern: %s\n",
		fp.SenderReceiver.LikelyPrimaryStabilizer, fp.SenderReceiver.Confidence, fp.CarrySupport.CarryPattern)
	for _, p := range fp.WhenYouWinPatterns {
		fmt.Fprintf(w, "  win pattern: %s (%.0f%%)\n", p.Label, p.HitRate)
	}

	if len(dq.BiggestLeaks) > 0 {
		fmt.Fprintln(w, "\nBiggest leaks:")
		for _, l := range dq.BiggestLeaks {
			fmt.Fprintf(w, "  * %s\n    why: %s\n    do:  %s\n", l.Leak, l.WhyItMatters, l.DoInstead)
		}
	}
	bullets(w, "Stagger suggestions", e.StaggerSuggestions)
	bullets(w, "Gift notes", g.Notes)
	rp := sc.CoachingReplay
	bullets(w, "Coaching replay", append([]string{rp.Stage2, rp.Stage3, rp.Stage4}, rp.IfThenExamples...))
}

// PrintPlaybook prints openers and the duo's standing rules.
func PrintPlaybook(w io.Writer, pb scorecard.Playbook) {
	if len(pb.TopOpeners) > 0 {
		table := newTable(w)
		table.Header("MATCH", "PATCH", "PLAYER A", "PLAYER B")
		for _, o := range pb.TopOpeners {
			table.Append(o.MatchID, o.Patch, strings.Join(prettyAll(o.PlayerA), " + "), strings.Join(prettyAll(o.PlayerB), " + "))
		}
		table.Render()
	} else {
		fmt.Fprintln(w, "No same-team top 4 openers in this window.")
	}
	s := pb.SignalSummary
	fmt.Fprintf(w, "\nSignals: %d rolls, %d gifts, %d same-team games\n", s.RollEvents, s.GiftEvents, s.SameTeamGames)
	bullets(w, "Plans", []string{pb.StableGreedyPlan, pb.BothTempoPlan})
	bullets(w, "Banned behaviors", pb.BannedBehaviors)
}

func prettyAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = aggregator.PrettyName(n)
	}
	return out
}

// PrintHighlights prints recap lines.
func PrintHighlights(w io.Writer, h scorecard.Highlights) {
	for _, l := range h.Highlights {
		fmt.Fprintf(w, "  * %s\n", l)
	}
}

// PrintIntel prints the coaching intelligence sections.
func PrintIntel(w io.Writer, in intel.Intel) {
	t := in.Tilt
	fmt.Fprintf(w, "Tilt: score %.0f  |  in window: %t  |  bad streak %d (longest %d)  |  recent %.2f vs prior %.2f\n",
		t.TiltScore, t.InTiltWindow, t.CurrentBadStreak, t.LongestBadStreak, t.RecentAvg, t.PriorAvg)
	fmt.Fprintf(w, "  %s\n", t.ResetRule)

	fmt.Fprintln(w, "\nFingerprints:")
	fmt.Fprintf(w, "  A: %s  (traits: %s)\n", strings.Join(in.Fingerprints.PlayerA.Labels, ", "),
		strings.Join(prettyAll(in.Fingerprints.PlayerA.TopTraits), ", "))
	fmt.Fprintf(w, "  B: %s  (traits: %s)\n", strings.Join(in.Fingerprints.PlayerB.Labels, ", "),
		strings.Join(prettyAll(in.Fingerprints.PlayerB.TopTraits), ", "))
	fmt.Fprintf(w, "  Duo: %s\n", strings.Join(in.Fingerprints.Duo.Labels, ", "))

	wc := in.WinConditions
	fmt.Fprintf(w, "\nWin conditions (base top 2 %.1f%% over %d games):\n", wc.BaseTop2, wc.Sample)
	if len(wc.Conditions) > 0 {
		table := newTable(w)
		table.Header("CONDITION", "LIFT", "DETAIL")
		for _, c := range wc.Conditions {
			table.Append(c.Title, fmt.Sprintf("%+.1f", c.Lift), c.Detail)
		}
		table.Render()
	}

	if len(in.LossAutopsy) > 0 {
		fmt.Fprintln(w, "\nLoss autopsy:")
		table := newTable(w)
		table.Header("MATCH", "DATE", "TEAM", "CONF", "FACTORS")
		for _, a := range in.LossAutopsy {
			reasons := make([]string, len(a.Factors))
			for i, f := range a.Factors {
				reasons[i] = f.Reason
			}
			table.Append(a.MatchID, date(a.Date), strconv.Itoa(a.Placement), fmt.Sprintf("%.2f", a.Confidence), strings.Join(reasons, "; "))
		}
		table.Render()
	}

	fmt.Fprintf(w, "\nMeta pressure: %.0f  |  %s\n", in.MetaPressure.Score, in.MetaPressure.Recommendation)
	fmt.Fprintf(w, "Timing: %s\n", in.TimingCoach.Guidance)
	co := in.Coordination
	fmt.Fprintf(w, "Coordination: %.0f  |  %s\n", co.Score, co.Recommendation)
	if len(co.Candidates) > 0 {
		table := newTable(w)
		table.Header("SPLIT", "GAMES", "TOP2", "WIN", "SCORE")
		for _, r := range co.Candidates {
			table.Append(r.Split, strconv.Itoa(r.Games), fmt.Sprintf("%.1f%%", r.Top2Rate), fmt.Sprintf("%.1f%%", r.WinRate), fmt.Sprintf("%.1f", r.Score))
		}
		table.Render()
	}
	if pw := in.PlayWindows; pw.Blessed != nil {
		fmt.Fprintf(w, "Play windows: best %s, worst %s (correlation only)\n", hourWindow(*pw.Blessed), hourWindow(*pw.Cursed))
	}
}

func hourWindow(h intel.HourWindow) string {
	return fmt.Sprintf("%s %02d:00 (%.0f%% top 2 over %d)", h.Weekday.String()[:3], h.Hour, h.Top2Rate, h.Games)
}

// PrintBrief prints a composed brief.
func PrintBrief(w io.Writer, res brief.Result) {
	b := res.Brief
	fmt.Fprintf(w, "%s\n", b.Headline)
	if res.Fallback {
		fmt.Fprintf(w, "(local fallback: %s)\n", res.Reason)
	} else {
		fmt.Fprintf(w, "(model %s, web search used: %t)\n", res.Model, res.WebSearchUsed)
	}
	fmt.Fprintf(w, "\n%s\n", b.Summary)
	bullets(w, "Meta read", b.MetaRead)
	bullets(w, "Team plan", b.TeamPlan)
	for _, p := range b.PlayerPlans {
		bullets(w, p.Player+" - "+p.Focus, p.Actions)
	}
	if b.PatchContext != "" {
		fmt.Fprintf(w, "\nPatch context: %s\n", b.PatchContext)
	}
	bullets(w, "Meta delta", b.MetaDelta)
	bullets(w, "Top improvement areas", b.TopImprovementAreas)
	bullets(w, "Win conditions", b.WinConditions)
	bullets(w, "Five game plan", b.FiveGamePlan)
	if len(b.ChampionBuilds) > 0 {
		fmt.Fprintln(w, "\nChampion builds:")
		table := newTable(w)
		table.Header("PLAYER", "CHAMPION", "ITEMS", "GAMES", "TOP2", "NOTE")
		for _, c := range b.ChampionBuilds {
			table.Append(c.Player, aggregator.PrettyName(c.Champion), strings.Join(prettyAll(c.Items), ", "),
				strconv.Itoa(c.Games), fmt.Sprintf("%.1f%%", c.Top2Rate), c.Note)
		}
		table.Render()
	}
	fmt.Fprintf(w, "\nConfidence: %s\n", b.Confidence)
	bullets(w, "Sources", b.Sources)
}
