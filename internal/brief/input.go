package brief

import (
	"sort"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

const (
	compactMatchLimit = 32
	compactTraitLimit = 8
	compactUnitLimit  = 10
	compactItemLimit  = 3
	momentumWindow    = 8
	topItemLimit      = 6
	lobbyTraitLimit   = 8
	lobbyUnitLimit    = 10
	suggestionLimit   = 4

	// per-player loss pressure feeding duo risk
	pressurePlacement = 4
	pressureGold      = 5
	pressureDamage    = 40
	riskPerLeak       = 12
	riskPerPressure   = 8
)

// DefaultObjective is used when the caller gives none.
const DefaultObjective = "Climb rank in TFT Double Up as a duo."

type Players struct {
	A     string `json:"a"`
	B     string `json:"b"`
	RankA string `json:"rankA"`
	RankB string `json:"rankB"`
}

type Filter struct {
	WindowDays int `json:"timelineDays"`
}

// Metrics are the headline numbers quoted in briefs.
type Metrics struct {
	DuoRisk       int     `json:"duoRisk"`
	DecisionGrade float64 `json:"decisionGrade"`
	Top2Rate      float64 `json:"top2Rate"`
	WinRate       float64 `json:"winRate"`
	AvgPlacement  float64 `json:"avgPlacement"`
	Momentum      float64 `json:"momentum"`
	RescueRate    float64 `json:"rescueRate"`
	ClutchIndex   float64 `json:"clutchIndex"`
}

type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MetaSnapshot struct {
	LobbyTraits  []aggregator.TraitCount `json:"lobbyTraits"`
	LobbyUnits   []aggregator.UnitCount  `json:"lobbyUnits"`
	PlayerAItems []ItemCount             `json:"playerAItems"`
	PlayerBItems []ItemCount             `json:"playerBItems"`
	Suggestions  []string                `json:"suggestions"`
}

type CompactTrait struct {
	Name     string `json:"name"`
	Style    int    `json:"style"`
	NumUnits int    `json:"numUnits"`
}

type CompactUnit struct {
	CharacterID string   `json:"characterId"`
	Tier        int      `json:"tier"`
	Rarity      int      `json:"rarity"`
	ItemNames   []string `json:"itemNames"`
}

type CompactPlayer struct {
	Placement            int            `json:"placement"`
	Level                int            `json:"level"`
	TotalDamageToPlayers int            `json:"totalDamageToPlayers"`
	GoldLeft             int            `json:"goldLeft"`
	Traits               []CompactTrait `json:"traits"`
	Units                []CompactUnit  `json:"units"`
}

// CompactMatch is the trimmed match shape sent to the model.
type CompactMatch struct {
	ID           string        `json:"id"`
	GameDatetime int64         `json:"gameDatetime"`
	Patch        string        `json:"patch"`
	SetNumber    int           `json:"setNumber"`
	SameTeam     bool          `json:"sameTeam"`
	PlayerA      CompactPlayer `json:"playerA"`
	PlayerB      CompactPlayer `json:"playerB"`
}

// Input is everything a brief is composed from.
type Input struct {
	Filter        Filter               `json:"filter"`
	Players       Players              `json:"players"`
	Objective     string               `json:"objective"`
	Metrics       Metrics              `json:"metrics"`
	Scorecard     *scorecard.Scorecard `json:"scorecard,omitempty"`
	CoachingIntel *intel.Intel         `json:"coachingIntel,omitempty"`
	MetaSnapshot  MetaSnapshot         `json:"metaSnapshot"`
	Matches       []CompactMatch       `json:"matches"`
}

// NewInput assembles the brief input for a window. The newest 32 matches are
// sent in compact form.
func NewInput(players Players, windowDays int, objective string, matches []model.Match,
	sc scorecard.Scorecard, in intel.Intel, summary aggregator.Summary) Input {
	if objective == "" {
		objective = DefaultObjective
	}
	newest := append([]model.Match(nil), matches...)
	sort.SliceStable(newest, func(i, j int) bool { return newest[i].GameDatetime > newest[j].GameDatetime })
	compact := make([]CompactMatch, 0, min(compactMatchLimit, len(newest)))
	for _, m := range newest[:min(compactMatchLimit, len(newest))] {
		compact = append(compact, compactMatch(m))
	}

	return Input{
		Filter:        Filter{WindowDays: windowDays},
		Players:       players,
		Objective:     objective,
		Metrics:       BuildMetrics(matches, sc),
		Scorecard:     &sc,
		CoachingIntel: &in,
		MetaSnapshot: MetaSnapshot{
			LobbyTraits:  summary.MetaTraits[:min(lobbyTraitLimit, len(summary.MetaTraits))],
			LobbyUnits:   summary.MetaUnits[:min(lobbyUnitLimit, len(summary.MetaUnits))],
			PlayerAItems: topItems(matches, model.SlotA),
			PlayerBItems: topItems(matches, model.SlotB),
			Suggestions:  summary.Suggestions[:min(suggestionLimit, len(summary.Suggestions))],
		},
		Matches: compact,
	}
}

// BuildMetrics computes the headline numbers from chronological team
// placements and the scorecard.
func BuildMetrics(matches []model.Match, sc scorecard.Scorecard) Metrics {
	sorted := intel.SortByDate(matches)
	placements := make([]float64, len(sorted))
	var top2, wins int
	for i, m := range sorted {
		p := aggregator.TeamPlacement(m)
		placements[i] = float64(p)
		if p <= 2 {
			top2++
		}
		if p == 1 {
			wins++
		}
	}

	pressure := 0
	for _, m := range matches {
		for _, p := range []model.PlayerSummary{m.PlayerA, m.PlayerB} {
			if p.PlacementOr8() <= pressurePlacement {
				continue
			}
			if p.GoldLeft <= pressureGold {
				pressure++
			}
			if p.TotalDamageToPlayers < pressureDamage {
				pressure++
			}
		}
	}
	risk := aggregator.Clamp100(float64(sc.DecisionQuality.LeakCount*riskPerLeak + pressure*riskPerPressure))

	return Metrics{
		DuoRisk:       int(risk + 0.5),
		DecisionGrade: sc.DecisionQuality.Grade,
		Top2Rate:      aggregator.PctOr0(top2, len(sorted)),
		WinRate:       aggregator.PctOr0(wins, len(sorted)),
		AvgPlacement:  aggregator.Mean(placements),
		Momentum:      Momentum(placements),
		RescueRate:    deref(sc.RescueIndex.RescueRate),
		ClutchIndex:   deref(sc.RescueIndex.ClutchIndex),
	}
}

// Momentum is the prior eight-game average minus the recent eight-game
// average; positive means improving. Zero until both windows have games.
func Momentum(placements []float64) float64 {
	n := len(placements)
	recent := placements[max(0, n-momentumWindow):]
	prior := placements[max(0, n-2*momentumWindow):max(0, n-momentumWindow)]
	if len(recent) == 0 || len(prior) == 0 {
		return 0
	}
	return aggregator.Mean(prior) - aggregator.Mean(recent)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func topItems(matches []model.Match, slot model.Slot) []ItemCount {
	idx := map[string]int{}
	out := []ItemCount{}
	for _, m := range matches {
		for _, u := range m.Player(slot).Units {
			for _, item := range u.ItemNames {
				if item == "" {
					continue
				}
				if i, ok := idx[item]; ok {
					out[i].Count++
					continue
				}
				idx[item] = len(out)
				out = append(out, ItemCount{Name: item, Count: 1})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out[:min(topItemLimit, len(out))]
}

func compactMatch(m model.Match) CompactMatch {
	return CompactMatch{
		ID:           m.ID,
		GameDatetime: m.GameDatetime,
		Patch:        m.Patch,
		SetNumber:    m.SetNumber,
		SameTeam:     m.SameTeam,
		PlayerA:      compactPlayer(m.PlayerA),
		PlayerB:      compactPlayer(m.PlayerB),
	}
}

func compactPlayer(p model.PlayerSummary) CompactPlayer {
	traits := make([]CompactTrait, 0, compactTraitLimit)
	for _, t := range p.Traits[:min(compactTraitLimit, len(p.Traits))] {
		traits = append(traits, CompactTrait{Name: t.Name, Style: t.Style, NumUnits: t.NumUnits})
	}
	units := make([]CompactUnit, 0, compactUnitLimit)
	for _, u := range p.Units[:min(compactUnitLimit, len(p.Units))] {
		units = append(units, CompactUnit{
			CharacterID: u.CharacterID,
			Tier:        u.Tier,
			Rarity:      u.Rarity,
			ItemNames:   u.ItemNames[:min(compactItemLimit, len(u.ItemNames))],
		})
	}
	return CompactPlayer{
		Placement:            p.Placement,
		Level:                p.Level,
		TotalDamageToPlayers: p.TotalDamageToPlayers,
		GoldLeft:             p.GoldLeft,
		Traits:               traits,
		Units:                units,
	}
}
