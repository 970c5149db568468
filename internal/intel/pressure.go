package intel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

// ---- contested meta pressure ----

type MetaPressure struct {
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation"`
	Sample         int     `json:"sample"`
}

// BuildMetaPressure scores how much of the duo's active traits overlap with the
// lobby's most played traits, weighted by relative popularity.
func BuildMetaPressure(matches []model.Match, meta []aggregator.TraitCount) MetaPressure {
	top := meta[:min(metaTraitWindow, len(meta))]
	topCount := 1
	if len(top) > 0 {
		topCount = top[0].Count
	}
	weights := map[string]float64{}
	for _, t := range top {
		weights[token(t.Name)] = float64(t.Count) / float64(topCount)
	}

	var scores []float64
	for _, m := range matches {
		seen := map[string]bool{}
		var uniq []string
		for _, p := range []model.PlayerSummary{m.PlayerA, m.PlayerB} {
			for _, t := range p.Traits {
				if t.Style <= 0 {
					continue
				}
				name := token(t.Name)
				if !seen[name] {
					seen[name] = true
					uniq = append(uniq, name)
				}
			}
		}
		if len(uniq) == 0 {
			continue
		}
		var overlap float64
		for _, name := range uniq {
			overlap += weights[name]
		}
		scores = append(scores, overlap/float64(len(uniq))*100)
	}

	score := aggregator.Clamp100(aggregator.Mean(scores))
	rec := "Meta pressure is manageable. You can stay on comfort lines unless shop forces pivot."
	switch {
	case score >= pressureHeavy:
		rec = "Your line is heavily contested. Lock one uncontested pivot before 3-2."
	case score >= pressureModerate:
		rec = "Moderately contested line. Keep one backup carry/item route ready."
	}
	return MetaPressure{Score: score, Recommendation: rec, Sample: len(scores)}
}

// ---- timing coach ----

type TimingCoach struct {
	Top2Level     float64  `json:"top2Level"`
	NonTop2Level  float64  `json:"nonTop2Level"`
	LevelDelta    float64  `json:"levelDelta"`
	OverlapStages []string `json:"overlapStages"`
	Guidance      string   `json:"guidance"`
}

// BuildTimingCoach compares board level in Top-2 finishes with weaker ones.
func BuildTimingCoach(matches []model.Match, sc *scorecard.Scorecard) TimingCoach {
	var top2, rest []float64
	for _, m := range matches {
		if !m.SameTeam {
			continue
		}
		lvl := float64(m.PlayerA.Level+m.PlayerB.Level) / 2
		if aggregator.TeamPlacement(m) <= topTwoTeamPlacement {
			top2 = append(top2, lvl)
		} else {
			rest = append(rest, lvl)
		}
	}
	top2Level, restLevel := aggregator.Mean(top2), aggregator.Mean(rest)
	delta := top2Level - restLevel

	overlap := []string{}
	if sc != nil && sc.EconCoordination.OverlapStages != nil {
		overlap = sc.EconCoordination.OverlapStages
	}

	guidance := "Level timing signal is neutral; prioritize stronger board quality over greedy level curves."
	switch {
	case delta >= timingHigherCapDelta:
		guidance = fmt.Sprintf("Best finishes align with higher cap timing. Your Top2 games average %.2f level vs %.2f in weaker results.", top2Level, restLevel)
	case delta <= timingOverGreedDelta:
		guidance = "You may be over-greeding levels in losses. Stabilize one board first, then push levels."
	}
	if len(overlap) > 0 {
		guidance += fmt.Sprintf(" Roll overlap detected at %s; stagger ownership to reduce dual all-ins.", strings.Join(overlap, ", "))
	}
	return TimingCoach{
		Top2Level:     top2Level,
		NonTop2Level:  restLevel,
		LevelDelta:    delta,
		OverlapStages: overlap,
		Guidance:      guidance,
	}
}

// ---- coordination ----

type SplitRow struct {
	Split    string  `json:"split"`
	Games    int     `json:"games"`
	Top2Rate float64 `json:"top2Rate"`
	WinRate  float64 `json:"winRate"`
	Score    float64 `json:"score"`
}

type Coordination struct {
	Score          float64    `json:"score"`
	BestSplit      *SplitRow  `json:"bestSplit"`
	Recommendation string     `json:"recommendation"`
	Candidates     []SplitRow `json:"candidates"`
}

// BuildCoordination ranks the role splits the duo has played by results.
func BuildCoordination(matches []model.Match, pressure MetaPressure) Coordination {
	type tally struct{ total, top2, wins int }
	counts := map[string]*tally{}
	var order []string
	for _, m := range matches {
		if !m.SameTeam {
			continue
		}
		key := string(InferRole(m, model.SlotA)) + "-" + string(InferRole(m, model.SlotB))
		t, ok := counts[key]
		if !ok {
			t = &tally{}
			counts[key] = t
			order = append(order, key)
		}
		placement := aggregator.TeamPlacement(m)
		t.total++
		if placement <= topTwoTeamPlacement {
			t.top2++
		}
		if placement == 1 {
			t.wins++
		}
	}

	rows := make([]SplitRow, 0, len(order))
	for _, key := range order {
		t := counts[key]
		top2 := aggregator.PctOr0(t.top2, t.total)
		win := aggregator.PctOr0(t.wins, t.total)
		rows = append(rows, SplitRow{
			Split:    key,
			Games:    t.total,
			Top2Rate: top2,
			WinRate:  win,
			Score:    top2*coordTop2Weight + win*coordWinWeight,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })

	c := Coordination{
		Score:      coordDefaultScore,
		Candidates: rows[:min(coordCandidateLimit, len(rows))],
	}
	rec := "Insufficient same-team sample to lock role split. Start with one tempo and one econ role."
	if len(rows) > 0 {
		best := rows[0]
		c.BestSplit = &best
		c.Score = aggregator.Clamp100(best.Score)
		rec = fmt.Sprintf("Pre-game role call: run %s split first.", strings.Replace(best.Split, "-", " / ", 1))
	}
	adjust := "Contested pressure is moderate: comfort split is acceptable."
	if pressure.Score >= coordHighPressure {
		adjust = "High contested meta: prioritize low-overlap frontline/backline split."
	}
	c.Recommendation = rec + " " + adjust
	return c
}
