package intel

import (
	"sort"
	"time"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

// HourWindow is one weekday/hour slot of queue time.
type HourWindow struct {
	Weekday  time.Weekday `json:"weekday"`
	Hour     int          `json:"hour"`
	Games    int          `json:"games"`
	Top2Rate float64      `json:"top2Rate"`
}

// PlayWindows reports the best and worst hour-of-week slots. Correlation
// only; a slot needs at least two games to qualify.
type PlayWindows struct {
	Sample   int         `json:"sample"`
	AvgPlace float64     `json:"avgPlace"`
	Top2Rate float64     `json:"top2Rate"`
	WinRate  float64     `json:"winRate"`
	Blessed  *HourWindow `json:"blessedWindow"`
	Cursed   *HourWindow `json:"cursedWindow"`
}

// BuildPlayWindows buckets matches by weekday and hour in loc. Ties keep
// the slot seen first.
func BuildPlayWindows(sorted []model.Match, loc *time.Location) PlayWindows {
	placements := teamPlacements(sorted)
	var top2, wins int
	for _, p := range placements {
		if p <= topTwoTeamPlacement {
			top2++
		}
		if p <= 1 {
			wins++
		}
	}
	out := PlayWindows{
		Sample:   len(placements),
		AvgPlace: aggregator.Mean(placements),
		Top2Rate: aggregator.PctOr0(top2, len(placements)),
		WinRate:  aggregator.PctOr0(wins, len(placements)),
	}

	type slot struct {
		day  time.Weekday
		hour int
	}
	var order []slot
	counts := map[slot]*[2]int{}
	for i, m := range sorted {
		if m.GameDatetime == 0 {
			continue
		}
		at := m.PlayedAt().In(loc)
		k := slot{at.Weekday(), at.Hour()}
		c, ok := counts[k]
		if !ok {
			c = &[2]int{}
			counts[k] = c
			order = append(order, k)
		}
		c[0]++
		if placements[i] <= topTwoTeamPlacement {
			c[1]++
		}
	}

	var rows []HourWindow
	for _, k := range order {
		c := counts[k]
		if c[0] < windowSampleFloor {
			continue
		}
		rows = append(rows, HourWindow{Weekday: k.day, Hour: k.hour, Games: c[0], Top2Rate: aggregator.PctOr0(c[1], c[0])})
	}
	if len(rows) == 0 {
		return out
	}
	best := append([]HourWindow(nil), rows...)
	sort.SliceStable(best, func(i, j int) bool { return best[i].Top2Rate > best[j].Top2Rate })
	worst := append([]HourWindow(nil), rows...)
	sort.SliceStable(worst, func(i, j int) bool { return worst[i].Top2Rate < worst[j].Top2Rate })
	out.Blessed, out.Cursed = &best[0], &worst[0]
	return out
}
