// Package brief composes the coaching brief: deterministic findings, a prompt
// for a language model, normalization of whatever the model returns, and a
// local fallback when no model answer is usable.
package brief

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	defaultHeadline = "AI Coaching Brief"
	sourceLimit     = 10
)

type PlayerPlan struct {
	Player  string   `json:"player"`
	Focus   string   `json:"focus"`
	Actions []string `json:"actions"`
}

// Brief is the normalized coaching brief.
type Brief struct {
	Headline            string          `json:"headline"`
	Summary             string          `json:"summary"`
	MetaRead            []string        `json:"metaRead"`
	TeamPlan            []string        `json:"teamPlan"`
	PlayerPlans         []PlayerPlan    `json:"playerPlans"`
	PatchContext        string          `json:"patchContext"`
	MetaDelta           []string        `json:"metaDelta"`
	TopImprovementAreas []string        `json:"topImprovementAreas"`
	WinConditions       []string        `json:"winConditions"`
	FiveGamePlan        []string        `json:"fiveGamePlan"`
	ChampionBuilds      []ChampionBuild `json:"championBuilds"`
	Confidence          string          `json:"confidence"`
	Sources             []string        `json:"sources"`
}

// empty reports a brief with neither a summary nor a team plan.
func (b Brief) empty() bool {
	return b.Summary == "" && len(b.TeamPlan) == 0
}

// ParseObject extracts the JSON object from model text, tolerating markdown
// code fences and prose around the object.
func ParseObject(text string) (gjson.Result, bool) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if !gjson.Valid(s) {
		start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
		if start < 0 || end <= start {
			return gjson.Result{}, false
		}
		s = s[start : end+1]
		if !gjson.Valid(s) {
			return gjson.Result{}, false
		}
	}
	r := gjson.Parse(s)
	if !r.IsObject() || len(r.Map()) == 0 {
		return gjson.Result{}, false
	}
	return r, true
}

// Normalize coerces a model's JSON object into a Brief. Lists are capped,
// confidence falls back to the findings band and citations are merged into
// sources.
func Normalize(obj gjson.Result, citations []string, f Findings) Brief {
	b := Brief{
		Headline:            obj.Get("headline").String(),
		Summary:             obj.Get("summary").String(),
		MetaRead:            strList(obj.Get("metaRead"), 5),
		TeamPlan:            strList(obj.Get("teamPlan"), 5),
		PlayerPlans:         []PlayerPlan{},
		PatchContext:        obj.Get("patchContext").String(),
		MetaDelta:           strList(obj.Get("metaDelta"), 5),
		TopImprovementAreas: strList(obj.Get("topImprovementAreas"), 4),
		WinConditions:       strList(obj.Get("winConditions"), 4),
		FiveGamePlan:        strList(obj.Get("fiveGamePlan"), 5),
		ChampionBuilds:      []ChampionBuild{},
	}
	if b.Headline == "" {
		b.Headline = defaultHeadline
	}

	obj.Get("playerPlans").ForEach(func(_, row gjson.Result) bool {
		p := PlayerPlan{
			Player:  row.Get("player").String(),
			Focus:   row.Get("focus").String(),
			Actions: strList(row.Get("actions"), 4),
		}
		if p.Player != "" && (p.Focus != "" || len(p.Actions) > 0) {
			b.PlayerPlans = append(b.PlayerPlans, p)
		}
		return len(b.PlayerPlans) < 3
	})
	obj.Get("championBuilds").ForEach(func(_, row gjson.Result) bool {
		c := ChampionBuild{
			Player:   row.Get("player").String(),
			Champion: row.Get("champion").String(),
			Items:    strList(row.Get("items"), 4),
			Games:    int(row.Get("games").Int()),
			Top2Rate: row.Get("top2Rate").Float(),
			Note:     row.Get("note").String(),
		}
		if c.Player != "" && c.Champion != "" {
			b.ChampionBuilds = append(b.ChampionBuilds, c)
		}
		return len(b.ChampionBuilds) < championBuildLimit
	})

	switch c := obj.Get("confidence").String(); c {
	case "low", "medium", "high":
		b.Confidence = c
	default:
		b.Confidence = f.ConfidenceBand
		if b.Confidence == "" {
			b.Confidence = "medium"
		}
	}
	b.Sources = dedupe(append(strList(obj.Get("sources"), 0), citations...), sourceLimit)

	if len(b.TopImprovementAreas) == 0 {
		b.TopImprovementAreas = capped(f.TopImprovementAreas, 4)
	}
	if len(b.WinConditions) == 0 {
		b.WinConditions = capped(f.WinConditions, 4)
	}
	if len(b.FiveGamePlan) == 0 {
		b.FiveGamePlan = capped(f.FiveGamePlan, 5)
	}
	if len(b.ChampionBuilds) == 0 {
		b.ChampionBuilds = append(b.ChampionBuilds, f.ChampionBuilds[:min(championBuildLimit, len(f.ChampionBuilds))]...)
	}
	return b
}

// strList reads non-empty strings from a JSON array; limit 0 means no cap.
func strList(arr gjson.Result, limit int) []string {
	out := []string{}
	arr.ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
		return limit == 0 || len(out) < limit
	})
	return out
}

func capped(in []string, limit int) []string {
	return append([]string{}, in[:min(limit, len(in))]...)
}

func dedupe(in []string, limit int) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// LocalBrief is the deterministic brief used when no model answer is usable.
func LocalBrief(in Input) Brief {
	m := in.Metrics
	a, b := in.Players.A, in.Players.B
	if a == "" {
		a = "Player A"
	}
	if b == "" {
		b = "Player B"
	}
	sign := ""
	if m.Momentum >= 0 {
		sign = "+"
	}
	return Brief{
		Headline: "LLM unavailable - deterministic coaching fallback",
		Summary: fmt.Sprintf("Decision %s/100, Top2 %.1f%%, Avg %.2f, Momentum %s%.2f, Risk %d%%.",
			strconv.FormatFloat(m.DecisionGrade, 'f', -1, 64), m.Top2Rate, m.AvgPlacement, sign, m.Momentum, m.DuoRisk),
		MetaRead: []string{
			"Meta comparison is inferred from your lobby trends in the current filter.",
			"Assume contested lines are high if your top traits/units mirror lobby-most-played lists.",
		},
		TeamPlan: []string{
			"Commit one tempo and one econ role by Stage 2 carousel.",
			"If both players are bleeding, only one player rolls hard at a time.",
			"Log one event each game (gift/rescue/roll) to improve coaching precision.",
		},
		PlayerPlans: []PlayerPlan{
			{
				Player: a,
				Focus:  "Stability and conversion",
				Actions: []string{
					"Avoid panic roll below 10 gold before Stage 4 unless lethal is imminent.",
					"Slam one DPS component earlier when damage trend is low.",
				},
			},
			{
				Player: b,
				Focus:  "Support timing and clutch setup",
				Actions: []string{
					"Pre-call one rescue trigger each stage and execute immediately.",
					"Send gifts only when partner has immediate spike conversion.",
				},
			},
		},
		PatchContext: "No live patch-note feed attached in this request; recommendations are trend-inferred.",
		MetaDelta: []string{
			"Your builds are compared against lobby-trend proxies, not a live external comp tier feed.",
		},
		TopImprovementAreas: []string{
			"Fallback mode: use deterministic issue detection while live AI is unavailable.",
		},
		WinConditions: []string{
			"Fallback mode: prioritize your most repeatable uncontested trait split.",
		},
		FiveGamePlan: []string{
			"Next 5 games: lock one tempo + one econ role by Stage 2.",
			"Next 5 games: each player pre-commits one pivot line.",
			"Next 5 games: log one coaching event per game for stronger analysis.",
		},
		ChampionBuilds: []ChampionBuild{},
		Confidence:     "low",
		Sources:        []string{"local-fallback"},
	}
}
