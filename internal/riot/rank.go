package riot

import "fmt"

const Unranked = "Unranked"

// rankQueues is the order queues are preferred in when formatting a rank.
var rankQueues = []string{"RANKED_TFT", "RANKED_TFT_DOUBLE_UP", "RANKED_TFT_TURBO"}

// FormatRank renders the preferred entry as "TIER RANK (N LP)".
func FormatRank(entries []LeagueEntry) string {
	if len(entries) == 0 {
		return Unranked
	}
	selected := entries[0]
pick:
	for _, q := range rankQueues {
		for _, e := range entries {
			if e.QueueType == q {
				selected = e
				break pick
			}
		}
	}
	return fmt.Sprintf("%s %s (%d LP)", selected.Tier, selected.Rank, selected.LeaguePoints)
}
