// Package intel turns a window of duo matches into coaching signals: tilt
// risk, play-style fingerprints, win conditions, loss autopsies, contested
// meta pressure, level timing, role coordination and hour-of-week play windows.
package intel

import (
	"sort"
	"time"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

type Fingerprints struct {
	PlayerA PlayerFingerprint `json:"playerA"`
	PlayerB PlayerFingerprint `json:"playerB"`
	Duo     DuoFingerprint    `json:"duo"`
}

// Intel bundles every coaching signal for one window.
type Intel struct {
	Tilt          Tilt          `json:"tilt"`
	Fingerprints  Fingerprints  `json:"fingerprints"`
	WinConditions WinConditions `json:"winConditions"`
	LossAutopsy   []LossAutopsy `json:"lossAutopsy"`
	MetaPressure  MetaPressure  `json:"contestedMetaPressure"`
	TimingCoach   TimingCoach   `json:"timingCoach"`
	Coordination  Coordination  `json:"coordination"`
	PlayWindows   PlayWindows   `json:"playWindows"`
}

// BuildIntel computes all signals. matches may be in any order; sc may be nil.
func BuildIntel(matches []model.Match, sc *scorecard.Scorecard, summary aggregator.Summary) Intel {
	sorted := SortByDate(matches)

	meta := map[string]bool{}
	for _, t := range summary.MetaTraits[:min(metaTraitWindow, len(summary.MetaTraits))] {
		meta[token(t.Name)] = true
	}
	pressure := BuildMetaPressure(sorted, summary.MetaTraits)
	return Intel{
		Tilt: BuildTilt(sorted, sc),
		Fingerprints: Fingerprints{
			PlayerA: BuildPlayerFingerprint(sorted, model.SlotA, meta),
			PlayerB: BuildPlayerFingerprint(sorted, model.SlotB, meta),
			Duo:     BuildDuoFingerprint(sorted),
		},
		WinConditions: MineWinConditions(sorted),
		LossAutopsy:   BuildLossAutopsy(sorted),
		MetaPressure:  pressure,
		TimingCoach:   BuildTimingCoach(sorted, sc),
		Coordination:  BuildCoordination(sorted, pressure),
		PlayWindows:   BuildPlayWindows(sorted, time.Local),
	}
}

// SortByDate returns a copy of matches ordered oldest first.
func SortByDate(matches []model.Match) []model.Match {
	sorted := append([]model.Match(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GameDatetime < sorted[j].GameDatetime
	})
	return sorted
}
