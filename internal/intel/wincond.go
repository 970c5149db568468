package intel

import (
	"fmt"
	"sort"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

type WinCondition struct {
	Title  string  `json:"title"`
	Detail string  `json:"detail"`
	Lift   float64 `json:"lift"`
}

type WinConditions struct {
	BaseTop2   float64        `json:"baseTop2"`
	Sample     int            `json:"sample"`
	Conditions []WinCondition `json:"conditions"`
}

// bucket tallies Top-2 finishes for games with and without a condition.
type bucket struct {
	yes, yesTop2 int
	no, noTop2   int
}

func (b *bucket) add(cond, top2 bool) {
	if cond {
		b.yes++
		if top2 {
			b.yesTop2++
		}
		return
	}
	b.no++
	if top2 {
		b.noTop2++
	}
}

type traitPair struct {
	a, b        string
	wins, total int
}

// MineWinConditions finds same-team conditions that lift the Top-2 rate.
// Buckets below their sample floor are left out.
func MineWinConditions(matches []model.Match) WinConditions {
	var split, level8 bucket
	var pairs []*traitPair
	pairIdx := map[string]*traitPair{}
	sample, top2Total := 0, 0

	for _, m := range matches {
		if !m.SameTeam {
			continue
		}
		sample++
		top2 := aggregator.TeamPlacement(m) <= topTwoTeamPlacement
		if top2 {
			top2Total++
		}
		split.add(InferRole(m, model.SlotA) != InferRole(m, model.SlotB), top2)
		level8.add(m.PlayerA.Level >= 8 && m.PlayerB.Level >= 8, top2)

		a, b := token(topTraitName(m.PlayerA)), token(topTraitName(m.PlayerB))
		if a == "" || b == "" {
			continue
		}
		key := a + "|" + b
		p, ok := pairIdx[key]
		if !ok {
			p = &traitPair{a: a, b: b}
			pairIdx[key] = p
			pairs = append(pairs, p)
		}
		p.total++
		if top2 {
			p.wins++
		}
	}

	base := aggregator.PctOr0(top2Total, sample)
	conditions := []WinCondition{}
	if split.yes >= splitSampleFloor {
		yes, no := aggregator.PctOr0(split.yesTop2, split.yes), aggregator.PctOr0(split.noTop2, split.no)
		conditions = append(conditions, WinCondition{
			Title:  "Tempo + Econ Split",
			Detail: fmt.Sprintf("When roles split, Top2 is %.1f%% vs %.1f%% baseline.", yes, no),
			Lift:   yes - no,
		})
	}
	if level8.yes >= level8SampleFloor {
		yes, no := aggregator.PctOr0(level8.yesTop2, level8.yes), aggregator.PctOr0(level8.noTop2, level8.no)
		conditions = append(conditions, WinCondition{
			Title:  "Dual Level-8 Timing",
			Detail: fmt.Sprintf("When both hit level 8+, Top2 is %.1f%% vs %.1f%%.", yes, no),
			Lift:   yes - no,
		})
	}
	if best := bestPair(pairs); best != nil {
		rate := aggregator.PctOr0(best.wins, best.total)
		conditions = append(conditions, WinCondition{
			Title: "Trait Pair Spike",
			Detail: fmt.Sprintf("When A plays %s and B plays %s, Top2 is %.1f%% (%d/%d).",
				aggregator.PrettyName(best.a), aggregator.PrettyName(best.b), rate, best.wins, best.total),
			Lift: rate - base,
		})
	}

	sort.SliceStable(conditions, func(i, j int) bool { return conditions[i].Lift > conditions[j].Lift })
	if len(conditions) > winConditionLimit {
		conditions = conditions[:winConditionLimit]
	}
	return WinConditions{BaseTop2: base, Sample: sample, Conditions: conditions}
}

func bestPair(pairs []*traitPair) *traitPair {
	var eligible []*traitPair
	for _, p := range pairs {
		if p.total >= pairSampleFloor {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		ri := float64(eligible[i].wins) / float64(eligible[i].total)
		rj := float64(eligible[j].wins) / float64(eligible[j].total)
		if ri != rj {
			return ri > rj
		}
		return eligible[i].total > eligible[j].total
	})
	return eligible[0]
}
