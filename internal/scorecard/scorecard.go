// Package scorecard derives duo process metrics from matches and the manually
// tagged event log. Metrics that lack the events they need report a status
// instead of a number; none of them fail.
package scorecard

import (
	"fmt"
	"time"

	"github.com/pable/tft-duo-metrics/internal/model"
)

// CoachingReplay is the stage-by-stage review template.
type CoachingReplay struct {
	Status         string   `json:"status"`
	Stage2         string   `json:"stage2"`
	Stage3         string   `json:"stage3"`
	Stage4         string   `json:"stage4"`
	IfThenExamples []string `json:"ifThenExamples"`
}

// Scorecard is the full duo report for a window.
type Scorecard struct {
	GeneratedAt        time.Time          `json:"generatedAt"`
	DataCoverage       DataCoverage       `json:"dataCoverage"`
	SynergyFingerprint SynergyFingerprint `json:"synergyFingerprint"`
	GiftEfficiency     GiftEfficiency     `json:"giftEfficiency"`
	RescueIndex        RescueIndex        `json:"rescueIndex"`
	EconCoordination   EconCoordination   `json:"econCoordination"`
	DecisionQuality    DecisionQuality    `json:"decisionQuality"`
	CoachingReplay     CoachingReplay     `json:"coachingReplay"`
}

// BuildScorecard combines every metric over the given window.
func BuildScorecard(matches []model.Match, events []model.Event, now time.Time) Scorecard {
	return Scorecard{
		GeneratedAt:        now.UTC(),
		DataCoverage:       ComputeDataCoverage(events),
		SynergyFingerprint: ComputeSynergyFingerprint(matches),
		GiftEfficiency:     ComputeGiftEfficiency(events),
		RescueIndex:        ComputeRescueIndex(events),
		EconCoordination:   ComputeEconCoordination(events),
		DecisionQuality:    ComputeDecisionQuality(matches, events),
		CoachingReplay: CoachingReplay{
			Status: StatusTemplateReady,
			Stage2: "Choose highest board strength opener from shops + slammable components.",
			Stage3: "Declare duo plan: one stabilizes, one greed econ unless both sub-55 HP.",
			Stage4: "Roll ownership: primary roller sends best-fit gift to partner.",
			IfThenExamples: []string{
				"If no stable frontline by 4-1, pivot to 4-cost board and protect streak.",
				"If one player spikes 2-star carry early, partner greed to fast level and send utility gift.",
			},
		},
	}
}

// ---- playbook ----

const openerLimit = 5

// Opener is a trait pairing from a same-team top-4 game.
type Opener struct {
	ID        string   `json:"id"`
	MatchID   string   `json:"matchId,omitempty"`
	Patch     string   `json:"patch,omitempty"`
	SetNumber int      `json:"setNumber,omitempty"`
	PlayerA   []string `json:"playerA"`
	PlayerB   []string `json:"playerB"`
}

type SignalSummary struct {
	RollEvents    int `json:"rollEvents"`
	GiftEvents    int `json:"giftEvents"`
	SameTeamGames int `json:"sameTeamGames"`
}

// Playbook is the duo's default game plan. The latest one built is cached on
// the duo record as its snapshot.
type Playbook struct {
	GeneratedAt      time.Time     `json:"generatedAt"`
	TopOpeners       []Opener      `json:"topOpeners"`
	StableGreedyPlan string        `json:"stableGreedyPlan"`
	BothTempoPlan    string        `json:"bothTempoPlan"`
	BannedBehaviors  []string      `json:"bannedBehaviors"`
	SignalSummary    SignalSummary `json:"signalSummary"`
}

// BuildPlaybook lists openers from the first five same-team top-4 games.
func BuildPlaybook(matches []model.Match, events []model.Event, now time.Time) Playbook {
	openers := []Opener{}
	sameTeam := 0
	for _, m := range matches {
		if !m.SameTeam {
			continue
		}
		sameTeam++
		if m.DuoPlacement() > topResultCeiling || len(openers) == openerLimit {
			continue
		}
		id := m.ID
		if id == "" {
			id = "match"
		}
		openers = append(openers, Opener{
			ID:        fmt.Sprintf("%s-%d", id, len(openers)),
			MatchID:   m.ID,
			Patch:     m.Patch,
			SetNumber: m.SetNumber,
			PlayerA:   traitsOrFlex(m.PlayerA),
			PlayerB:   traitsOrFlex(m.PlayerB),
		})
	}

	var rolls, gifts int
	for _, e := range events {
		switch e.Type {
		case model.EventRollDown:
			rolls++
		case model.EventGiftSent:
			gifts++
		}
	}

	return Playbook{
		GeneratedAt:      now.UTC(),
		TopOpeners:       openers,
		StableGreedyPlan: "Default split: Player with stronger Stage 3 board stabilizes, partner greed-econs to Stage 4 roll.",
		BothTempoPlan:    "When both sub-60 HP by Stage 3-5, dual stabilize and convert to Top 4 line.",
		BannedBehaviors: []string{
			"Both players hard rolling before 4-1 without emergency call.",
			"No gift sent in Stage 3 when one partner is bleeding.",
			"Both players holding same carry components without pivot assignment.",
		},
		SignalSummary: SignalSummary{RollEvents: rolls, GiftEvents: gifts, SameTeamGames: sameTeam},
	}
}

func traitsOrFlex(p model.PlayerSummary) []string {
	if t := TopTraits(p, 2); len(t) > 0 {
		return t
	}
	return []string{"Flex"}
}

// ---- highlights ----

type Highlights struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Highlights  []string  `json:"highlights"`
}

// BuildHighlights renders short recap sentences for the window.
func BuildHighlights(matches []model.Match, events []model.Event, now time.Time) Highlights {
	top2 := 0
	for _, m := range matches {
		if m.SameTeam && m.DuoPlacement() <= 2 {
			top2++
		}
	}
	var rescues, gifts int
	for _, e := range events {
		switch e.Type {
		case model.EventRescueArrival:
			rescues++
		case model.EventGiftSent:
			gifts++
		}
	}

	var out []string
	if top2 > 0 {
		out = append(out, fmt.Sprintf("Reached Top 2 in %d same-team games in this window.", top2))
	}
	if rescues > 0 {
		out = append(out, fmt.Sprintf("Triggered %d rescue arrivals.", rescues))
	}
	if gifts > 0 {
		out = append(out, fmt.Sprintf("Sent %d tracked gifts to support duo spikes.", gifts))
	}
	if len(out) == 0 {
		out = append(out, "No highlight events yet. Add journal/event tags to generate recaps.")
	}
	return Highlights{GeneratedAt: now.UTC(), Highlights: out}
}
