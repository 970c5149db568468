package brief

import (
	"strings"

	json "github.com/goccy/go-json"
)

var systemLines = []string{
	"You are an expert TFT Double Up coach focused on helping a duo climb rank.",
	"You must compare their current filtered match patterns against current patch/meta expectations.",
	"In your analysis include: contested lines, unit/item tendencies, likely buff/nerf pressure, and rank-appropriate risk.",
	"If web sources are available, use them for current patch builds, items, and buff/nerf context.",
	"If web sources are unavailable or uncertain, explicitly say assumptions are inferred from lobby trends and current patch id.",
	"Never fabricate exact patch-note facts that are not supported by provided data or citations.",
	"Return strict JSON only.",
	"Use only supplied numbers; never invent stats.",
	"Keep advice concise, concrete, and execution-focused.",
}

// SystemPrompt is the fixed coaching instruction.
func SystemPrompt() string {
	return strings.Join(systemLines, " ")
}

type promptContext struct {
	Objective             string   `json:"objective"`
	DeterministicFindings Findings `json:"deterministicFindings"`
	RequiredComparisons   []string `json:"requiredComparisons"`
}

type schemaPlayerPlan struct {
	Player  string   `json:"player"`
	Focus   string   `json:"focus"`
	Actions []string `json:"actions"`
}

type schemaBuild struct {
	Player   string   `json:"player"`
	Champion string   `json:"champion"`
	Items    []string `json:"items"`
	Games    string   `json:"games"`
	Top2Rate string   `json:"top2Rate"`
	Note     string   `json:"note"`
}

type responseSchema struct {
	Headline            string             `json:"headline"`
	Summary             string             `json:"summary"`
	MetaRead            []string           `json:"metaRead"`
	TeamPlan            []string           `json:"teamPlan"`
	PlayerPlans         []schemaPlayerPlan `json:"playerPlans"`
	PatchContext        string             `json:"patchContext"`
	MetaDelta           []string           `json:"metaDelta"`
	TopImprovementAreas []string           `json:"topImprovementAreas"`
	WinConditions       []string           `json:"winConditions"`
	FiveGamePlan        []string           `json:"fiveGamePlan"`
	ChampionBuilds      []schemaBuild      `json:"championBuilds"`
	Confidence          string             `json:"confidence"`
	Sources             []string           `json:"sources"`
}

type userPrompt struct {
	Task    string         `json:"task"`
	Context promptContext  `json:"context"`
	Schema  responseSchema `json:"schema"`
	Input   Input          `json:"input"`
}

var exampleSchema = responseSchema{
	Headline:            "string",
	Summary:             "string",
	MetaRead:            []string{"string"},
	TeamPlan:            []string{"string"},
	PlayerPlans:         []schemaPlayerPlan{{Player: "string", Focus: "string", Actions: []string{"string"}}},
	PatchContext:        "string",
	MetaDelta:           []string{"string"},
	TopImprovementAreas: []string{"string"},
	WinConditions:       []string{"string"},
	FiveGamePlan:        []string{"string"},
	ChampionBuilds: []schemaBuild{{
		Player: "string", Champion: "string", Items: []string{"string"},
		Games: "number", Top2Rate: "number", Note: "string",
	}},
	Confidence: "low|medium|high",
	Sources:    []string{"string"},
}

// UserPrompt renders the task, the deterministic findings, the response
// schema and the full input as one JSON document.
func UserPrompt(in Input, f Findings) (string, error) {
	p := userPrompt{
		Task: "Generate a rank-climbing coaching briefing for this duo.",
		Context: promptContext{
			Objective:             in.Objective,
			DeterministicFindings: f,
			RequiredComparisons: []string{
				"Compare duo tendencies vs current web/meta pressure.",
				"Identify where their unit/item patterns look outdated or over-contested.",
				"Suggest safer alternatives for their current rank and sample size.",
			},
		},
		Schema: exampleSchema,
		Input:  in,
	}
	b, err := json.MarshalNoEscape(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
