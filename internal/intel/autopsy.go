package intel

import (
	"sort"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

type LossFactor struct {
	Reason string  `json:"reason"`
	Weight float64 `json:"weight"`
}

type LossAutopsy struct {
	MatchID    string       `json:"matchId"`
	Placement  int          `json:"placement"`
	Date       int64        `json:"date"`
	Confidence float64      `json:"confidence"`
	Factors    []LossFactor `json:"factors"`
}

// BuildLossAutopsy explains the three worst team finishes, most recent first
// among equal placements.
func BuildLossAutopsy(matches []model.Match) []LossAutopsy {
	ranked := append([]model.Match(nil), matches...)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := aggregator.TeamPlacement(ranked[i]), aggregator.TeamPlacement(ranked[j])
		if pi != pj {
			return pi > pj
		}
		return ranked[i].GameDatetime > ranked[j].GameDatetime
	})
	ranked = ranked[:min(autopsyLimit, len(ranked))]

	out := make([]LossAutopsy, 0, len(ranked))
	for _, m := range ranked {
		placement := aggregator.TeamPlacement(m)
		a, b := m.PlayerA, m.PlayerB

		var factors []LossFactor
		if placement >= lateCollapsePlacement {
			factors = append(factors, LossFactor{"Late collapse (team bottom half finish)", weightLateCollapse})
		}
		if float64(a.Level+b.Level)/2 < lowCapLevel {
			factors = append(factors, LossFactor{"Low board cap (average level below 8)", weightLowCap})
		}
		if a.TotalDamageToPlayers+b.TotalDamageToPlayers < lowPressureDamage {
			factors = append(factors, LossFactor{"Low pressure output (combined damage under 90)", weightLowPressure})
		}
		if a.GoldLeft <= exhaustedGold || b.GoldLeft <= exhaustedGold {
			factors = append(factors, LossFactor{"Resource exhaustion signal (one player near zero gold)", weightExhaustion})
		}
		if len(factors) == 0 {
			factors = append(factors, LossFactor{"Variance loss with no dominant structural leak", weightVariance})
		}

		var total float64
		for _, f := range factors {
			total += f.Weight
		}
		sort.SliceStable(factors, func(i, j int) bool { return factors[i].Weight > factors[j].Weight })

		id := m.ID
		if id == "" {
			id = "unknown"
		}
		out = append(out, LossAutopsy{
			MatchID:    id,
			Placement:  placement,
			Date:       m.GameDatetime,
			Confidence: aggregator.Clamp100(total),
			Factors:    factors[:min(autopsyFactorLimit, len(factors))],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}
