package intel

import (
	"strings"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

// Tilt compares the last six team placements with the six before them.
type Tilt struct {
	InTiltWindow     bool    `json:"inTiltWindow"`
	TiltScore        float64 `json:"tiltScore"`
	CurrentBadStreak int     `json:"currentBadStreak"`
	LongestBadStreak int     `json:"longestBadStreak"`
	RecentAvg        float64 `json:"recentAvg"`
	PriorAvg         float64 `json:"priorAvg"`
	VarianceJump     float64 `json:"varianceJump"`
	ResetRule        string  `json:"resetRule"`
}

// Momentum is positive when recent finishes beat the prior window.
func (t Tilt) Momentum() float64 {
	return t.PriorAvg - t.RecentAvg
}

func teamPlacements(sorted []model.Match) []float64 {
	out := make([]float64, len(sorted))
	for i, m := range sorted {
		out[i] = float64(aggregator.TeamPlacement(m))
	}
	return out
}

// BuildTilt scores tilt risk from placement drift, variance, losing streaks and
// roll-discipline leaks. sorted must be ordered oldest first.
func BuildTilt(sorted []model.Match, sc *scorecard.Scorecard) Tilt {
	placements := teamPlacements(sorted)
	n := len(placements)
	recent := placements[max(0, n-tiltWindow):]
	prior := placements[max(0, n-2*tiltWindow):max(0, n-tiltWindow)]

	recentAvg, priorAvg := aggregator.Mean(recent), aggregator.Mean(prior)
	var drop float64
	if len(prior) > 0 {
		drop = recentAvg - priorAvg
	}
	varianceJump := aggregator.StdDev(recent) - aggregator.StdDev(prior)

	var current, longest int
	for _, p := range placements {
		if p >= badStreakPlacement {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}

	rollLeak := false
	if sc != nil {
		for _, l := range sc.DecisionQuality.BiggestLeaks {
			if strings.Contains(strings.ToLower(l.Leak), rollLeakKeyword) {
				rollLeak = true
				break
			}
		}
	}

	var score float64
	if drop > 0 {
		score += drop * tiltDropWeight
	}
	if varianceJump > 0 {
		score += varianceJump * tiltVarianceWeight
	}
	if current >= tiltStreakFloor {
		score += float64(current) * tiltStreakWeight
	}
	if rollLeak {
		score += tiltRollLeakWeight
	}
	score = aggregator.Clamp100(score)

	rule := "Pause 5 minutes, then requeue with pre-commitment: first contested trait gets immediate pivot."
	if drop > tiltHardResetDrop {
		rule = "Run one forced low-variance game: one tempo stabilizer + one econ support. No dual-roll before 4-1."
	}
	return Tilt{
		InTiltWindow:     score >= tiltScoreThreshold,
		TiltScore:        score,
		CurrentBadStreak: current,
		LongestBadStreak: longest,
		RecentAvg:        recentAvg,
		PriorAvg:         priorAvg,
		VarianceJump:     varianceJump,
		ResetRule:        rule,
	}
}
