package brief

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	findingsAreaLimit    = 4
	findingsWinLimit     = 4
	championBuildLimit   = 8
	championBuildFloor   = 2
	highConversionRate   = 55.0
	highConfidenceSample = 25
	midConfidenceSample  = 12

	findingsLowGold   = 5
	findingsLowDamage = 50
	avgPlacementAlarm = 2.75
)

var fiveGamePlan = []string{
	"Game 1-2: force one tempo + one econ role by Stage 2 carousel; avoid double-greed starts.",
	"Game 1-5: pre-commit one pivot line each if primary traits are contested by 2+ players.",
	"Game 1-5: log one rescue/gift/roll event every game to improve coaching confidence.",
	"Game 3-5: if both rolled same stage in prior game, enforce roll staggering next queue.",
	"After 5 games: keep only adjustments that improved Top2 rate vs current baseline.",
}

// ChampionBuild is a champion and item set one player repeated.
type ChampionBuild struct {
	Player   string   `json:"player"`
	Champion string   `json:"champion"`
	Items    []string `json:"items"`
	Games    int      `json:"games"`
	Top2Rate float64  `json:"top2Rate"`
	Note     string   `json:"note"`
}

// Findings are computed locally and handed to the model as ground truth.
type Findings struct {
	SampleSize          int             `json:"sampleSize"`
	AvgTeamPlacement    float64         `json:"avgTeamPlacement"`
	TopImprovementAreas []string        `json:"topImprovementAreas"`
	WinConditions       []string        `json:"winConditions"`
	FiveGamePlan        []string        `json:"fiveGamePlan"`
	ChampionBuilds      []ChampionBuild `json:"championBuilds"`
	ConfidenceBand      string          `json:"confidenceBand"`
}

// compactTeamPlacement is the lobby-free team placement; compact matches carry
// no lobby.
func compactTeamPlacement(m CompactMatch) int {
	worst := max(placementOr8(m.PlayerA.Placement), placementOr8(m.PlayerB.Placement))
	return min(4, max(1, (worst+1)/2))
}

func placementOr8(p int) int {
	if p <= 0 {
		return 8
	}
	return p
}

type buildRow struct {
	player, champion string
	items            []string
	games, top2      int
}

// BuildFindings derives improvement areas, win conditions and repeatable
// champion builds from the compact matches of in.
func BuildFindings(in Input) Findings {
	matches := in.Matches
	sample := len(matches)

	lobby := map[string]bool{}
	for _, t := range in.MetaSnapshot.LobbyTraits {
		lobby[t.Name] = true
	}

	var (
		placementSum                float64
		lowGold, lowDamage, overlap int
		top2Matches, bottomMatches  []CompactMatch
		pairOrder, buildOrder       []string
	)
	pairCounts := map[string]int{}
	builds := map[string]*buildRow{}
	for _, m := range matches {
		team := compactTeamPlacement(m)
		placementSum += float64(team)
		if team <= 2 {
			top2Matches = append(top2Matches, m)
		} else {
			bottomMatches = append(bottomMatches, m)
		}
		a, b := m.PlayerA, m.PlayerB
		if team >= 3 && (a.GoldLeft <= findingsLowGold || b.GoldLeft <= findingsLowGold) {
			lowGold++
		}
		if team >= 3 && (a.TotalDamageToPlayers < findingsLowDamage || b.TotalDamageToPlayers < findingsLowDamage) {
			lowDamage++
		}

		if len(a.Traits) > 0 && len(b.Traits) > 0 {
			ta, tb := strings.TrimSpace(a.Traits[0].Name), strings.TrimSpace(b.Traits[0].Name)
			if ta != "" && tb != "" {
				key := ta + " + " + tb
				if _, ok := pairCounts[key]; !ok {
					pairOrder = append(pairOrder, key)
				}
				pairCounts[key]++
			}
		}

		for _, p := range []CompactPlayer{a, b} {
			for _, t := range p.Traits {
				if t.Name != "" && lobby[t.Name] {
					overlap++
				}
			}
		}

		for _, side := range []struct {
			slot, name string
			p          CompactPlayer
		}{{"A", in.Players.A, a}, {"B", in.Players.B, b}} {
			name := side.name
			if name == "" {
				name = "Player " + side.slot
			}
			for _, u := range side.p.Units {
				if u.CharacterID == "" {
					continue
				}
				items := make([]string, 0, len(u.ItemNames))
				for _, it := range u.ItemNames {
					if it != "" {
						items = append(items, it)
					}
				}
				sort.Strings(items)
				itemsKey := strings.Join(items, " + ")
				if itemsKey == "" {
					itemsKey = "no-items"
				}
				key := side.slot + "|" + u.CharacterID + "|" + itemsKey
				row, ok := builds[key]
				if !ok {
					row = &buildRow{player: name, champion: u.CharacterID, items: items}
					builds[key] = row
					buildOrder = append(buildOrder, key)
				}
				row.games++
				if team <= 2 {
					row.top2++
				}
			}
		}
	}

	avg := 0.0
	if sample > 0 {
		avg = placementSum / float64(sample)
	}
	championBuilds := rankBuilds(builds, buildOrder)

	var areas []string
	if avg > avgPlacementAlarm {
		areas = append(areas, fmt.Sprintf("Average team placement is %.2f. Stabilize one low-variance board before both greed.", avg))
	}
	if lowGold >= max(2, int(math.Floor(float64(sample)*0.18))) {
		areas = append(areas, fmt.Sprintf("Low-gold losses: %d/%d. Delay panic all-ins unless immediate lethal risk.", lowGold, sample))
	}
	if lowDamage >= max(2, int(math.Floor(float64(sample)*0.16))) {
		areas = append(areas, fmt.Sprintf("Low-damage losses: %d/%d. Prioritize earlier carry completion over marginal econ greed.", lowDamage, sample))
	}
	if overlap >= max(6, sample) {
		areas = append(areas, fmt.Sprintf("Trait overlap pressure is high (%d overlap hits). You are over-indexing contested lines.", overlap))
	}
	if len(areas) == 0 {
		areas = append(areas, "No severe issue pattern detected in this window; tighten execution consistency.")
	}

	var wins []string
	if len(pairOrder) > 0 {
		sort.SliceStable(pairOrder, func(i, j int) bool { return pairCounts[pairOrder[i]] > pairCounts[pairOrder[j]] })
		best := pairOrder[0]
		wins = append(wins, fmt.Sprintf("Most repeatable trait split: %s (%d games). Keep this as default when uncontested.", best, pairCounts[best]))
	}
	if len(top2Matches) > 0 && len(bottomMatches) > 0 {
		wins = append(wins, fmt.Sprintf("Top2 avg level %.2f vs Bottom2 %.2f. Earlier stabilization correlates with stronger finishes.",
			avgLevel(top2Matches), avgLevel(bottomMatches)))
	}
	if len(championBuilds) > 0 {
		b := championBuilds[0]
		items := strings.Join(b.Items, ", ")
		if items == "" {
			items = "flex"
		}
		wins = append(wins, fmt.Sprintf("%s build signal: %s + %s -> Top2 %s%% (%d games).",
			b.Player, b.Champion, items, formatRate(b.Top2Rate), b.Games))
	}
	if len(wins) == 0 {
		wins = append(wins, "Not enough high-confidence win-condition signals yet. Increase same-team sample and event logging.")
	}

	return Findings{
		SampleSize:          sample,
		AvgTeamPlacement:    math.Round(avg*100) / 100,
		TopImprovementAreas: areas[:min(findingsAreaLimit, len(areas))],
		WinConditions:       wins[:min(findingsWinLimit, len(wins))],
		FiveGamePlan:        append([]string(nil), fiveGamePlan...),
		ChampionBuilds:      championBuilds,
		ConfidenceBand:      confidenceBand(sample),
	}
}

func rankBuilds(builds map[string]*buildRow, order []string) []ChampionBuild {
	out := []ChampionBuild{}
	for _, key := range order {
		row := builds[key]
		if row.games < championBuildFloor {
			continue
		}
		out = append(out, ChampionBuild{
			Player:   row.player,
			Champion: row.champion,
			Items:    row.items,
			Games:    row.games,
			Top2Rate: float64(row.top2) / float64(row.games) * 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Top2Rate != out[j].Top2Rate {
			return out[i].Top2Rate > out[j].Top2Rate
		}
		return out[i].Games > out[j].Games
	})
	out = out[:min(championBuildLimit, len(out))]
	for i := range out {
		out[i].Note = "Monitor; medium conversion"
		if out[i].Top2Rate >= highConversionRate {
			out[i].Note = "High-conversion build"
		}
		out[i].Top2Rate = math.Round(out[i].Top2Rate*10) / 10
	}
	return out
}

func avgLevel(matches []CompactMatch) float64 {
	var sum float64
	for _, m := range matches {
		sum += float64(m.PlayerA.Level + m.PlayerB.Level)
	}
	return sum / float64(len(matches)*2)
}

// formatRate prints 66.7 as "66.7" and 100 as "100".
func formatRate(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func confidenceBand(sample int) string {
	switch {
	case sample >= highConfidenceSample:
		return "high"
	case sample >= midConfidenceSample:
		return "medium"
	default:
		return "low"
	}
}
