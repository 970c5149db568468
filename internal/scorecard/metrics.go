package scorecard

import (
	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

// Status values reported when the event log cannot support a metric.
const (
	StatusOK               = "ok"
	StatusNeedsGiftEvents  = "needs_gift_events"
	StatusNeedsRoundEvents = "needs_round_events"
	StatusTemplateReady    = "template_ready"
)

const (
	overlapPenalty    = 18
	baseGrade         = 68
	lowGoldRollFloor  = 20
	missingGoldAfter  = 99
	lowResultFloor    = 6
	topResultCeiling  = 4
	biggestLeaksLimit = 3
)

// ---- gift efficiency ----

type GiftMetrics struct {
	EarlyGiftRate  *float64 `json:"earlyGiftRate"`
	LateGiftRate   *float64 `json:"lateGiftRate"`
	UnitGiftRate   *float64 `json:"unitGiftRate"`
	ItemGiftRate   *float64 `json:"itemGiftRate"`
	GiftROI        *float64 `json:"giftROI"`
	BenchWasteRate *float64 `json:"benchWasteRate"`
}

type GiftEfficiency struct {
	Status            string       `json:"status"`
	Metrics           *GiftMetrics `json:"metrics"`
	Notes             []string     `json:"notes,omitempty"`
	OverGiftingAlerts int          `json:"overGiftingAlerts"`
}

// ComputeGiftEfficiency rates gift timing, type and outcome. A gift with no
// known stage counts as early.
func ComputeGiftEfficiency(events []model.Event) GiftEfficiency {
	var gifts []model.Event
	for _, e := range events {
		if e.Type == model.EventGiftSent {
			gifts = append(gifts, e)
		}
	}
	if len(gifts) == 0 {
		return GiftEfficiency{
			Status: StatusNeedsGiftEvents,
			Notes:  []string{"No gift events ingested yet. Add event stream or manual tags to unlock ROI scoring."},
		}
	}

	var early, late, unit, item, carry, benched, stable int
	for _, e := range gifts {
		// An unstaged gift counts as early.
		if major := e.Stage.MajorOr(0); major <= 2 {
			early++
		} else if major >= 4 {
			late++
		}
		g, _ := e.Detail.(model.GiftSent)
		switch g.GiftType {
		case "unit":
			unit++
		case "item":
			item++
		}
		switch g.Outcome {
		case "became_carry":
			carry++
		case "benched":
			benched++
		}
		if g.PartnerState == "stable" {
			stable++
		}
	}
	n := len(gifts)
	return GiftEfficiency{
		Status: StatusOK,
		Metrics: &GiftMetrics{
			EarlyGiftRate:  aggregator.Pct(early, n),
			LateGiftRate:   aggregator.Pct(late, n),
			UnitGiftRate:   aggregator.Pct(unit, n),
			ItemGiftRate:   aggregator.Pct(item, n),
			GiftROI:        aggregator.Pct(carry, n),
			BenchWasteRate: aggregator.Pct(benched, n),
		},
		OverGiftingAlerts: stable,
	}
}

// ---- rescue index ----

type RescueIndex struct {
	Status             string   `json:"status"`
	RescueRate         *float64 `json:"rescueRate"`
	MissedBailouts     *int     `json:"missedBailouts"`
	ClutchIndex        *float64 `json:"clutchIndex"`
	SuccessfulFlipRate *float64 `json:"successfulFlipRate,omitempty"`
}

func ComputeRescueIndex(events []model.Event) RescueIndex {
	var rescues, flips, clutch, missed int
	for _, e := range events {
		switch d := e.Detail.(type) {
		case model.RescueArrival:
			rescues++
			if d.RoundOutcomeBefore == "loss_likely" && d.RoundOutcomeAfter == "won" {
				flips++
			}
			if e.Stage.MajorOr(0) >= 4 && d.TeammateAtRisk && d.RoundOutcomeAfter == "won" {
				clutch++
			}
		case model.MissedBailout:
			missed++
		}
	}
	if rescues == 0 {
		return RescueIndex{Status: StatusNeedsRoundEvents}
	}
	return RescueIndex{
		Status:             StatusOK,
		RescueRate:         aggregator.Pct(rescues, len(events)),
		MissedBailouts:     &missed,
		ClutchIndex:        aggregator.Pct(clutch, rescues),
		SuccessfulFlipRate: aggregator.Pct(flips, rescues),
	}
}

// ---- econ coordination ----

type EconCoordination struct {
	Status             string   `json:"status"`
	CoordinationScore  *float64 `json:"coordinationScore"`
	OverlapStages      []string `json:"overlapStages,omitempty"`
	StaggerSuggestions []string `json:"staggerSuggestions"`
}

// ComputeEconCoordination penalizes stages where both players rolled.
func ComputeEconCoordination(events []model.Event) EconCoordination {
	counts := map[string]int{}
	var order []string
	for _, e := range events {
		if e.Type != model.EventRollDown {
			continue
		}
		key := e.Stage.Key()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	if len(order) == 0 {
		return EconCoordination{Status: StatusNeedsRoundEvents, StaggerSuggestions: []string{}}
	}

	overlap := []string{}
	for _, key := range order {
		if counts[key] > 1 {
			overlap = append(overlap, key)
		}
	}
	score := aggregator.Clamp100(100 - float64(overlapPenalty*len(overlap)))
	return EconCoordination{
		Status:            StatusOK,
		CoordinationScore: &score,
		OverlapStages:     overlap,
		StaggerSuggestions: []string{
			"Default: one player rolls on 3-2, partner rolls on 4-1.",
			"If both low HP at 3-5, call emergency dual roll only with explicit cap target.",
		},
	}
}

// ---- decision quality ----

type Leak struct {
	Leak         string `json:"leak"`
	WhyItMatters string `json:"whyItMatters"`
	DoInstead    string `json:"doInstead"`
}

type DecisionQuality struct {
	Grade          float64 `json:"grade"`
	LeakCount      int     `json:"leakCount"`
	BiggestLeaks   []Leak  `json:"biggestLeaks"`
	EvaluationMode string  `json:"evaluationMode"`
}

var (
	leakNoProcessData = Leak{
		Leak:         "Insufficient process data",
		WhyItMatters: "Outcome-only data can hide correct decisions in bad variance spots.",
		DoInstead:    "Capture roll, slam, gift, and pivot tags each stage.",
	}
	leakLateStabilization = Leak{
		Leak:         "Late board stabilization pattern",
		WhyItMatters: "Bottom placements outnumber top finishes in same-team games.",
		DoInstead:    "Assign one stabilizer by Stage 3 and lock a roll stage before carousel.",
	}
	leakRollDiscipline = Leak{
		Leak:         "Roll discipline leaks",
		WhyItMatters: "Low-gold emergency rolls are frequent and often reduce cap options later.",
		DoInstead:    "Set explicit roll floors and only break with pre-declared emergency trigger.",
	}
	leakMissedBailout = Leak{
		Leak:         "Missed bailout gifting windows",
		WhyItMatters: "Skipping gifts when partner is bleeding usually compounds HP losses.",
		DoInstead:    "Pre-commit bailout trigger: send item/unit when partner <40 HP and your board is stable.",
	}
	leakAugmentFit = Leak{
		Leak:         "No augment fit signal logged",
		WhyItMatters: "Augment mismatch is a common hidden EV drain in duo lines.",
		DoInstead:    "Log augment intent tag each augment armory and track fit score.",
	}
)

// ComputeDecisionQuality grades the duo's process. Outcome terms compare
// same-team top and bottom finishes; process terms subtract for panic rolls,
// missed gifts and roll-downs that left less than 20 gold.
func ComputeDecisionQuality(matches []model.Match, events []model.Event) DecisionQuality {
	var low, top int
	for _, m := range matches {
		if !m.SameTeam {
			continue
		}
		p := m.DuoPlacement()
		if p >= lowResultFloor {
			low++
		}
		if p <= topResultCeiling {
			top++
		}
	}

	var panicRolls, missedGift, lowGoldRolls int
	for _, e := range events {
		switch e.Tag() {
		case model.TagPanicRoll:
			panicRolls++
		case model.TagMissedGift:
			missedGift++
		}
		if rd, ok := e.Detail.(model.RollDown); ok {
			gold := float64(missingGoldAfter)
			if rd.GoldAfter != nil {
				gold = *rd.GoldAfter
			}
			if gold < lowGoldRollFloor {
				lowGoldRolls++
			}
		}
	}

	hasEvents := len(events) > 0
	var leaks []Leak
	if !hasEvents && low > 0 {
		leaks = append(leaks, leakNoProcessData)
	}
	if low > top {
		leaks = append(leaks, leakLateStabilization)
	}
	if lowGoldRolls > 0 || panicRolls > 0 {
		leaks = append(leaks, leakRollDiscipline)
	}
	if missedGift > 0 {
		leaks = append(leaks, leakMissedBailout)
	}
	leaks = append(leaks, leakAugmentFit)

	mode := "outcome_with_coverage_warnings"
	if hasEvents {
		mode = "process_plus_outcome"
	}
	grade := baseGrade + 2*(top-low) - 3*panicRolls - 2*missedGift - 3*lowGoldRolls
	return DecisionQuality{
		Grade:          aggregator.Clamp100(float64(grade)),
		LeakCount:      len(leaks),
		BiggestLeaks:   leaks[:min(biggestLeaksLimit, len(leaks))],
		EvaluationMode: mode,
	}
}

// ---- coverage ----

type DataCoverage struct {
	RiotMatchPayload    bool `json:"riotMatchPayload"`
	RoundTimelineEvents bool `json:"roundTimelineEvents"`
	GiftEvents          bool `json:"giftEvents"`
	CommsSignals        bool `json:"commsSignals"`
	IntentTags          bool `json:"intentTags"`
}

func ComputeDataCoverage(events []model.Event) DataCoverage {
	c := DataCoverage{RiotMatchPayload: true, RoundTimelineEvents: len(events) > 0}
	for _, e := range events {
		switch e.Type {
		case model.EventGiftSent:
			c.GiftEvents = true
		case model.EventCommsSnapshot:
			c.CommsSignals = true
		case model.EventIntentTag:
			c.IntentTags = true
		}
	}
	return c
}
