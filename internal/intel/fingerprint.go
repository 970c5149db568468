package intel

import (
	"sort"
	"strings"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

// Role is the inferred job a player took in one game.
type Role string

const (
	RoleTempo Role = "tempo"
	RoleEcon  Role = "econ"
)

// InferRole marks a player tempo when they dealt most of the duo's damage or
// ended the game nearly broke.
func InferRole(m model.Match, slot model.Slot) Role {
	me, partner := m.Player(slot), m.Partner(slot)
	total := me.TotalDamageToPlayers + partner.TotalDamageToPlayers
	share := 0.5
	if total > 0 {
		share = float64(me.TotalDamageToPlayers) / float64(total)
	}
	if share >= tempoDamageShare || me.GoldLeft < tempoGoldCeiling {
		return RoleTempo
	}
	return RoleEcon
}

func token(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// topTraitName is the highest-style active trait, first one on ties.
func topTraitName(p model.PlayerSummary) string {
	best := -1
	name := ""
	for _, t := range p.Traits {
		if t.Style > 0 && t.Style > best {
			best, name = t.Style, t.Name
		}
	}
	return name
}

type PlayerMetrics struct {
	AvgLevel          float64 `json:"avgLevel"`
	AvgGoldLeft       float64 `json:"avgGoldLeft"`
	Top4Rate          float64 `json:"top4Rate"`
	PlacementVariance float64 `json:"placementVariance"`
}

type PlayerFingerprint struct {
	Labels    []string      `json:"labels"`
	Metrics   PlayerMetrics `json:"metrics"`
	TopTraits []string      `json:"topTraits"`
}

// BuildPlayerFingerprint labels one player's habits. metaTraits holds
// lower-cased names of the most contested lobby traits.
func BuildPlayerFingerprint(matches []model.Match, slot model.Slot, metaTraits map[string]bool) PlayerFingerprint {
	var placements, levels, gold []float64
	type count struct {
		name string
		n    int
	}
	var traits []count
	idx := map[string]int{}
	top4 := 0

	for _, m := range matches {
		p := m.Player(slot)
		placements = append(placements, float64(p.PlacementOr8()))
		if p.PlacementOr8() <= 4 {
			top4++
		}
		levels = append(levels, float64(p.Level))
		gold = append(gold, float64(p.GoldLeft))
		for _, t := range p.Traits {
			name := token(t.Name)
			if t.Style <= 0 || name == "" {
				continue
			}
			if i, ok := idx[name]; ok {
				traits[i].n++
				continue
			}
			idx[name] = len(traits)
			traits = append(traits, count{name: name, n: 1})
		}
	}

	metrics := PlayerMetrics{
		AvgLevel:          aggregator.Mean(levels),
		AvgGoldLeft:       aggregator.Mean(gold),
		Top4Rate:          aggregator.PctOr0(top4, len(placements)),
		PlacementVariance: aggregator.StdDev(placements),
	}

	var labels []string
	if metrics.AvgLevel >= tempoPusherLevel && metrics.AvgGoldLeft < tempoPusherGold {
		labels = append(labels, "Tempo Pusher")
	}
	if metrics.AvgGoldLeft >= econGreederGold {
		labels = append(labels, "Econ Greeder")
	}
	if metrics.PlacementVariance >= highVarianceStd {
		labels = append(labels, "High Variance Gambler")
	}
	if metrics.PlacementVariance <= consistencyStd {
		labels = append(labels, "Consistency Grinder")
	}
	if metrics.Top4Rate >= stableTop4Rate {
		labels = append(labels, "Stable Top4 Closer")
	}
	hits := 0
	for _, t := range traits {
		if metaTraits[t.name] {
			hits++
		}
	}
	if hits >= contestedFighterHits {
		labels = append(labels, "Contested-Trait Fighter")
	}
	if hits <= pivotSpecialistHits {
		labels = append(labels, "Pivot Specialist")
	}

	sort.SliceStable(traits, func(i, j int) bool { return traits[i].n > traits[j].n })
	topTraits := []string{}
	for _, t := range traits[:min(fingerprintTopTraits, len(traits))] {
		topTraits = append(topTraits, aggregator.PrettyName(t.name))
	}
	return PlayerFingerprint{
		Labels:    capLabels(labels),
		Metrics:   metrics,
		TopTraits: topTraits,
	}
}

func capLabels(labels []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, l := range labels {
		if seen[l] || len(out) == fingerprintLabels {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

type DuoMetrics struct {
	TempoEconRate    float64 `json:"tempoEconRate"`
	DualTempoRate    float64 `json:"dualTempoRate"`
	DualEconRate     float64 `json:"dualEconRate"`
	TraitOverlapRate float64 `json:"traitOverlapRate"`
}

type DuoFingerprint struct {
	Labels  []string   `json:"labels"`
	Metrics DuoMetrics `json:"metrics"`
}

// BuildDuoFingerprint labels how the pair usually splits roles and traits.
func BuildDuoFingerprint(matches []model.Match) DuoFingerprint {
	var split, dualTempo, dualEcon, overlap int
	for _, m := range matches {
		a, b := InferRole(m, model.SlotA), InferRole(m, model.SlotB)
		switch {
		case a != b:
			split++
		case a == RoleTempo:
			dualTempo++
		default:
			dualEcon++
		}
		ta, tb := topTraitName(m.PlayerA), topTraitName(m.PlayerB)
		if ta != "" && tb != "" && token(ta) == token(tb) {
			overlap++
		}
	}
	n := len(matches)
	overlapRate := aggregator.PctOr0(overlap, n)

	var labels []string
	if split >= max(dualTempo, dualEcon) {
		labels = append(labels, "Role-Split Duo")
	}
	if dualTempo > split {
		labels = append(labels, "Double Tempo Duo")
	}
	if dualEcon > split {
		labels = append(labels, "Double Econ Duo")
	}
	if overlapRate >= highOverlapRate {
		labels = append(labels, "High Overlap Pair")
	}
	if overlapRate <= complementaryRate {
		labels = append(labels, "Complementary Boards")
	}
	return DuoFingerprint{
		Labels: capLabels(labels),
		Metrics: DuoMetrics{
			TempoEconRate:    aggregator.PctOr0(split, n),
			DualTempoRate:    aggregator.PctOr0(dualTempo, n),
			DualEconRate:     aggregator.PctOr0(dualEcon, n),
			TraitOverlapRate: overlapRate,
		},
	}
}
