package aggregator

import (
	"sort"

	"github.com/pable/tft-duo-metrics/internal/model"
)

// TeamPlacement resolves the duo's 1–4 team finish.
//
// When both players share a partner group and lobby data is present, lobby
// participants are grouped by partner group and ranked by mean placement, then
// best, then worst; the duo's 1-based rank is returned. Otherwise it falls back
// to ceil(max(pA, pB)/2) clamped to 1–4. Both paths agree on complete lobbies.
func TeamPlacement(m model.Match) int {
	if m.SameTeam && len(m.Lobby) > 0 {
		if rank, ok := lobbyGroupRank(m.Lobby, m.PlayerA.PartnerGroupID); ok {
			return rank
		}
	}
	return fallbackTeamPlacement(m.PlayerA.PlacementOr8(), m.PlayerB.PlacementOr8())
}

func fallbackTeamPlacement(a, b int) int {
	worst := max(a, b)
	return min(4, max(1, (worst+1)/2))
}

type groupStanding struct {
	id          int
	mean        float64
	best, worst int
}

func lobbyGroupRank(lobby []model.PlayerSummary, duoGroup int) (int, bool) {
	byGroup := make(map[int][]int)
	for _, p := range lobby {
		if p.PartnerGroupID == 0 {
			continue
		}
		byGroup[p.PartnerGroupID] = append(byGroup[p.PartnerGroupID], p.PlacementOr8())
	}
	if _, ok := byGroup[duoGroup]; !ok {
		return 0, false
	}

	standings := make([]groupStanding, 0, len(byGroup))
	for id, placements := range byGroup {
		g := groupStanding{id: id, best: placements[0], worst: placements[0]}
		for _, p := range placements {
			g.best = min(g.best, p)
			g.worst = max(g.worst, p)
		}
		g.mean = Mean(ints(placements))
		standings = append(standings, g)
	}
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.mean != b.mean {
			return a.mean < b.mean
		}
		if a.best != b.best {
			return a.best < b.best
		}
		if a.worst != b.worst {
			return a.worst < b.worst
		}
		return a.id < b.id
	})
	for i, g := range standings {
		if g.id == duoGroup {
			return i + 1, true
		}
	}
	return 0, false
}

// EstimatedLPDelta maps a team placement to a rough Double Up LP swing.
func EstimatedLPDelta(teamPlacement int) int {
	switch teamPlacement {
	case 1:
		return 35
	case 2:
		return 20
	case 3:
		return -15
	default:
		return -30
	}
}
