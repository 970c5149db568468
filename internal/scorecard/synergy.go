package scorecard

import (
	"sort"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

const (
	stabilizerConfidenceStep = 12.5
	utilityItemFloor         = 8
	carryDamageGap           = 10
	lowOverlapCeiling        = 1
	winPatternLimit          = 3
)

// matchFeatures are the per-match signals the fingerprint is built from.
type matchFeatures struct {
	sameTeam, won      bool
	duoPlacement       int
	threeStarCarryA    bool
	threeStarCarryB    bool
	damageCarryA       bool
	damageCarryB       bool
	utilityA, utilityB bool
	bothLevel8Plus     bool
	duoDamageGap       int
	traitOverlap       int
}

func baselineFeatures(m model.Match) matchFeatures {
	a, b := m.PlayerA, m.PlayerB
	duo := m.DuoPlacement()
	aStars, bStars := countThreeStars(a.Units), countThreeStars(b.Units)
	aItems, bItems := itemCount(a.Units), itemCount(b.Units)
	aDmg, bDmg := a.TotalDamageToPlayers, b.TotalDamageToPlayers

	bTraits := TopTraits(b, 3)
	overlap := 0
	for _, t := range TopTraits(a, 3) {
		for _, o := range bTraits {
			if t == o {
				overlap++
				break
			}
		}
	}
	gap := aDmg - bDmg
	if gap < 0 {
		gap = -gap
	}
	return matchFeatures{
		sameTeam:        m.SameTeam,
		won:             m.SameTeam && duo <= 2,
		duoPlacement:    duo,
		threeStarCarryA: aStars > bStars,
		threeStarCarryB: bStars > aStars,
		damageCarryA:    aDmg > bDmg,
		damageCarryB:    bDmg > aDmg,
		utilityA:        aItems >= utilityItemFloor && aDmg < bDmg,
		utilityB:        bItems >= utilityItemFloor && bDmg < aDmg,
		bothLevel8Plus:  a.Level >= 8 && b.Level >= 8,
		duoDamageGap:    gap,
		traitOverlap:    overlap,
	}
}

func countThreeStars(units []model.Unit) int {
	n := 0
	for _, u := range units {
		if u.Tier >= 3 {
			n++
		}
	}
	return n
}

func itemCount(units []model.Unit) int {
	n := 0
	for _, u := range units {
		n += len(u.ItemNames)
	}
	return n
}

// TopTraits returns up to limit active trait names, strongest first.
func TopTraits(p model.PlayerSummary, limit int) []string {
	active := make([]model.Trait, 0, len(p.Traits))
	for _, t := range p.Traits {
		if t.Style > 0 {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Style != active[j].Style {
			return active[i].Style > active[j].Style
		}
		return active[i].NumUnits > active[j].NumUnits
	})
	out := []string{}
	for _, t := range active {
		if len(out) == limit {
			break
		}
		if t.Name != "" {
			out = append(out, t.Name)
		}
	}
	return out
}

type SenderReceiver struct {
	LikelyPrimaryStabilizer string  `json:"likelyPrimaryStabilizer"`
	Confidence              float64 `json:"confidence"`
}

type CarrySupport struct {
	CarryPattern    string   `json:"carryPattern"`
	ThreeStarShareA *float64 `json:"threeStarShareA"`
	ThreeStarShareB *float64 `json:"threeStarShareB"`
	UtilityShareA   *float64 `json:"utilityShareA"`
	UtilityShareB   *float64 `json:"utilityShareB"`
}

// Placeholder marks a signal the match payload cannot provide.
type Placeholder struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type WinPattern struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	HitRate float64 `json:"hitRate"`
}

type SampleSize struct {
	SharedGames   int `json:"sharedGames"`
	SameTeamGames int `json:"sameTeamGames"`
	Wins          int `json:"wins"`
}

type SynergyFingerprint struct {
	SenderReceiver       SenderReceiver `json:"senderReceiver"`
	CarrySupport         CarrySupport   `json:"carrySupport"`
	BoardTimingAlignment Placeholder    `json:"boardTimingAlignment"`
	GiftUsageStyle       Placeholder    `json:"giftUsageStyle"`
	WhenYouWinPatterns   []WinPattern   `json:"whenYouWinPatterns"`
	SampleSize           SampleSize     `json:"sampleSize"`
}

// ComputeSynergyFingerprint describes how the duo splits carry and support
// duties, using only fields present in the Riot match payload.
func ComputeSynergyFingerprint(matches []model.Match) SynergyFingerprint {
	var sameTeam, wins []matchFeatures
	for _, m := range matches {
		f := baselineFeatures(m)
		if f.sameTeam {
			sameTeam = append(sameTeam, f)
		}
		if f.won {
			wins = append(wins, f)
		}
	}

	var dmgA, dmgB, starA, starB, utilA, utilB int
	for _, f := range sameTeam {
		if f.damageCarryA {
			dmgA++
		}
		if f.damageCarryB {
			dmgB++
		}
		if f.threeStarCarryA {
			starA++
		}
		if f.threeStarCarryB {
			starB++
		}
		if f.utilityA {
			utilA++
		}
		if f.utilityB {
			utilB++
		}
	}

	stabilizer := "balanced"
	switch {
	case dmgA > dmgB:
		stabilizer = "playerA"
	case dmgB > dmgA:
		stabilizer = "playerB"
	}
	diff := dmgA - dmgB
	if diff < 0 {
		diff = -diff
	}

	pattern := "mixed-carry"
	switch {
	case starA > starB:
		pattern = "playerA-carry-playerB-support"
	case starB > starA:
		pattern = "playerB-carry-playerA-support"
	}

	n := len(sameTeam)
	return SynergyFingerprint{
		SenderReceiver: SenderReceiver{
			LikelyPrimaryStabilizer: stabilizer,
			Confidence:              aggregator.Clamp100(float64(diff) * stabilizerConfidenceStep),
		},
		CarrySupport: CarrySupport{
			CarryPattern:    pattern,
			ThreeStarShareA: aggregator.Pct(starA, n),
			ThreeStarShareB: aggregator.Pct(starB, n),
			UtilityShareA:   aggregator.Pct(utilA, n),
			UtilityShareB:   aggregator.Pct(utilB, n),
		},
		BoardTimingAlignment: Placeholder{
			Status: StatusNeedsRoundEvents,
			Reason: "Riot match payload does not expose per-stage board power spikes for Double Up.",
		},
		GiftUsageStyle: Placeholder{
			Status: StatusNeedsGiftEvents,
			Reason: "Gift timing/type requires round-level ingestion from in-client tracker or user tags.",
		},
		WhenYouWinPatterns: winPatterns(wins),
		SampleSize: SampleSize{
			SharedGames:   len(matches),
			SameTeamGames: n,
			Wins:          len(wins),
		},
	}
}

func winPatterns(wins []matchFeatures) []WinPattern {
	hit := func(pred func(matchFeatures) bool) *float64 {
		n := 0
		for _, f := range wins {
			if pred(f) {
				n++
			}
		}
		return aggregator.Pct(n, len(wins))
	}
	catalog := []struct {
		key, label string
		rate       *float64
	}{
		{"carry_split_damage", "One clear carry and one utility board",
			hit(func(f matchFeatures) bool { return f.duoDamageGap >= carryDamageGap })},
		{"high_cap_boards", "Both players hit level 8+",
			hit(func(f matchFeatures) bool { return f.bothLevel8Plus })},
		{"low_trait_conflict", "Lower trait overlap between partners",
			hit(func(f matchFeatures) bool { return f.traitOverlap <= lowOverlapCeiling })},
	}

	out := []WinPattern{}
	for _, c := range catalog {
		if c.rate == nil {
			continue
		}
		out = append(out, WinPattern{Key: c.key, Label: c.label, HitRate: *c.rate})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HitRate > out[j].HitRate })
	if len(out) > winPatternLimit {
		out = out[:winPatternLimit]
	}
	return out
}
