package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pable/tft-duo-metrics/internal/model"
)

const (
	metaTraitLimit = 8
	metaUnitLimit  = 10
)

// KPIs are the headline duo numbers over a set of shared matches.
type KPIs struct {
	GamesTogether    int      `json:"gamesTogether"`
	SameTeamGames    int      `json:"sameTeamGames"`
	SameTeamTop4Rate *float64 `json:"sameTeamTop4Rate"`
	AvgPlacementA    float64  `json:"avgPlacementA"`
	AvgPlacementB    float64  `json:"avgPlacementB"`
	AvgTeamPlacement *float64 `json:"avgTeamPlacement"`
	TeamTop4Rate     *float64 `json:"teamTop4Rate"`
	TeamWinRate      *float64 `json:"teamWinRate"`
	TeamPlacements   []int    `json:"teamPlacements"`
}

// PlayerRollup is one player's aggregate over the same matches.
type PlayerRollup struct {
	Games           int      `json:"games"`
	AvgPlacement    float64  `json:"avgPlacement"`
	MedianPlacement float64  `json:"medianPlacement"`
	Top4Rate        *float64 `json:"top4Rate"`
	Top2Rate        *float64 `json:"top2Rate"`
	Consistency     float64  `json:"consistency"` // placement std-dev; lower is steadier
	AvgDamage       float64  `json:"avgDamage"`
	AvgLevel        float64  `json:"avgLevel"`
}

// TraitCount is a lobby-wide trait frequency.
type TraitCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UnitCount is a lobby-wide unit frequency.
type UnitCount struct {
	CharacterID string `json:"characterId"`
	Count       int    `json:"count"`
}

// Summary is the output of Summarize.
type Summary struct {
	KPIs        KPIs         `json:"kpis"`
	PlayerA     PlayerRollup `json:"playerA"`
	PlayerB     PlayerRollup `json:"playerB"`
	MetaTraits  []TraitCount `json:"metaTraits"`
	MetaUnits   []UnitCount  `json:"metaUnits"`
	Suggestions []string     `json:"suggestions"`
}

// Summarize computes KPIs, per-player rollups, lobby meta frequencies and
// plain-language suggestions. All rates are nil on empty input.
func Summarize(matches []model.Match) Summary {
	s := Summary{
		KPIs:        KPIs{TeamPlacements: []int{}},
		MetaTraits:  []TraitCount{},
		MetaUnits:   []UnitCount{},
		Suggestions: []string{},
	}
	if len(matches) == 0 {
		return s
	}

	var (
		aPlacements, bPlacements []int
		sameTeamPlacements       []int
		missingAugments          bool
	)
	for _, m := range matches {
		aPlacements = append(aPlacements, m.PlayerA.PlacementOr8())
		bPlacements = append(bPlacements, m.PlayerB.PlacementOr8())
		duo := m.DuoPlacement()
		s.KPIs.TeamPlacements = append(s.KPIs.TeamPlacements, duo)
		if m.SameTeam {
			sameTeamPlacements = append(sameTeamPlacements, duo)
		}
		if !m.PlayerA.HasAugmentsField || !m.PlayerB.HasAugmentsField {
			missingAugments = true
		}
	}

	s.KPIs.GamesTogether = len(matches)
	s.KPIs.SameTeamGames = len(sameTeamPlacements)
	s.KPIs.SameTeamTop4Rate = TopNRate(sameTeamPlacements, 4)
	s.KPIs.AvgPlacementA = Mean(ints(aPlacements))
	s.KPIs.AvgPlacementB = Mean(ints(bPlacements))
	if len(sameTeamPlacements) > 0 {
		avg := Mean(ints(sameTeamPlacements))
		s.KPIs.AvgTeamPlacement = &avg
	}
	s.KPIs.TeamTop4Rate = TopNRate(s.KPIs.TeamPlacements, 4)
	s.KPIs.TeamWinRate = TopNRate(s.KPIs.TeamPlacements, 1)

	s.PlayerA = rollup(matches, model.SlotA)
	s.PlayerB = rollup(matches, model.SlotB)
	s.MetaTraits, s.MetaUnits = lobbyMeta(matches)
	s.Suggestions = suggestions(s, missingAugments)
	return s
}

// TopNRate is the share of placements at or better than n.
func TopNRate(placements []int, n int) *float64 {
	hits := 0
	for _, p := range placements {
		if p <= n {
			hits++
		}
	}
	return Pct(hits, len(placements))
}

func rollup(matches []model.Match, slot model.Slot) PlayerRollup {
	var placements, damage, level []float64
	var raw []int
	for _, m := range matches {
		p := m.Player(slot)
		raw = append(raw, p.PlacementOr8())
		placements = append(placements, float64(p.PlacementOr8()))
		damage = append(damage, float64(p.TotalDamageToPlayers))
		level = append(level, float64(p.Level))
	}
	sorted := append([]float64(nil), placements...)
	sort.Float64s(sorted)
	return PlayerRollup{
		Games:           len(matches),
		AvgPlacement:    Mean(placements),
		MedianPlacement: median(sorted),
		Top4Rate:        TopNRate(raw, 4),
		Top2Rate:        TopNRate(raw, 2),
		Consistency:     StdDev(placements),
		AvgDamage:       Mean(damage),
		AvgLevel:        Mean(level),
	}
}

// lobbyMeta counts active traits (style > 0) and units across every lobby
// participant. Ties keep first-seen order.
func lobbyMeta(matches []model.Match) ([]TraitCount, []UnitCount) {
	traitIdx := map[string]int{}
	var traits []TraitCount
	unitIdx := map[string]int{}
	var units []UnitCount

	for _, m := range matches {
		for _, p := range m.Lobby {
			for _, t := range p.Traits {
				if t.Style <= 0 || t.Name == "" {
					continue
				}
				if i, ok := traitIdx[t.Name]; ok {
					traits[i].Count++
					continue
				}
				traitIdx[t.Name] = len(traits)
				traits = append(traits, TraitCount{Name: t.Name, Count: 1})
			}
			for _, u := range p.Units {
				if u.CharacterID == "" {
					continue
				}
				if i, ok := unitIdx[u.CharacterID]; ok {
					units[i].Count++
					continue
				}
				unitIdx[u.CharacterID] = len(units)
				units = append(units, UnitCount{CharacterID: u.CharacterID, Count: 1})
			}
		}
	}

	sort.SliceStable(traits, func(i, j int) bool { return traits[i].Count > traits[j].Count })
	sort.SliceStable(units, func(i, j int) bool { return units[i].Count > units[j].Count })
	if len(traits) > metaTraitLimit {
		traits = traits[:metaTraitLimit]
	}
	if len(units) > metaUnitLimit {
		units = units[:metaUnitLimit]
	}
	if traits == nil {
		traits = []TraitCount{}
	}
	if units == nil {
		units = []UnitCount{}
	}
	return traits, units
}

func suggestions(s Summary, missingAugments bool) []string {
	out := []string{}
	if s.KPIs.SameTeamGames < 5 {
		out = append(out, "Small same-team sample size. Queue together in Double Up for stronger trend confidence.")
	}
	if s.KPIs.AvgTeamPlacement != nil && *s.KPIs.AvgTeamPlacement > 4.5 {
		out = append(out, "Team average is outside Top 4. Stabilize one board early and let the other greed economy.")
	}
	if len(s.MetaTraits) >= 3 {
		names := make([]string, 0, 3)
		for _, t := range s.MetaTraits[:3] {
			names = append(names, PrettyName(t.Name))
		}
		out = append(out, fmt.Sprintf("Most contested traits: %s. Plan one uncontested pivot each game.", strings.Join(names, ", ")))
	}
	if missingAugments {
		out = append(out, "Riot is not consistently returning augment data in this queue/set, so advice is weighted toward unit/trait trends.")
	}
	return out
}
