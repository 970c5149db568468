package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMissingEventType is returned when an event is submitted without a type.
var ErrMissingEventType = errors.New("event type is required")

// EventType is the free-form type string of a logged event.
type EventType string

const (
	EventGiftSent      EventType = "gift_sent"
	EventRescueArrival EventType = "rescue_arrival"
	EventRollDown      EventType = "roll_down"
	EventMissedBailout EventType = "missed_bailout"
	EventCommsSnapshot EventType = "comms_snapshot"
	EventIntentTag     EventType = "intent_tag"
	EventMistakeTag    EventType = "mistake_tag"
)

// Tags carried in event payloads that feed decision scoring.
const (
	TagPanicRoll  = "panic_roll"
	TagMissedGift = "missed_gift"
)

// Stage is a TFT stage such as 3-2. Either half may be unknown.
type Stage struct {
	Major *int `json:"stageMajor"`
	Minor *int `json:"stageMinor"`
}

// NewStage builds a fully known stage.
func NewStage(major, minor int) Stage {
	return Stage{Major: &major, Minor: &minor}
}

// ParseStage accepts "3-2" or "3.2". Unparseable halves stay unknown.
func ParseStage(raw string) Stage {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Stage{}
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '-' || r == '.' })
	var s Stage
	if len(parts) > 0 {
		if v, err := strconv.Atoi(parts[0]); err == nil {
			s.Major = &v
		}
	}
	if len(parts) > 1 {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			s.Minor = &v
		}
	}
	return s
}

// MajorOr returns the major stage or def when unknown.
func (s Stage) MajorOr(def int) int {
	if s.Major == nil {
		return def
	}
	return *s.Major
}

// Key groups rolls by stage; unknown halves render as "?".
func (s Stage) Key() string {
	return stagePart(s.Major) + "-" + stagePart(s.Minor)
}

// String renders "3.2", or "" when either half is unknown.
func (s Stage) String() string {
	if s.Major == nil || s.Minor == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d", *s.Major, *s.Minor)
}

func stagePart(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}

// ---- Event log ----

// Event is one entry of a duo's append-only event log. Detail holds the typed
// view of the payload; unrecognized types decode to Unknown.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	MatchID    string         `json:"matchId,omitempty"`
	Stage      Stage          `json:"stage"`
	ActorSlot  string         `json:"actorSlot,omitempty"`
	TargetSlot string         `json:"targetSlot,omitempty"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"createdAt"`
	Detail     Detail         `json:"-"`
}

// Detail is implemented by every typed event payload.
type Detail interface {
	Kind() EventType
}

type GiftSent struct {
	GiftType     string // "unit" | "item"
	Outcome      string // "became_carry" | "benched" | ...
	PartnerState string // "stable" | "bleeding" | ...
}

type RescueArrival struct {
	TeammateAtRisk     bool
	RoundOutcomeBefore string
	RoundOutcomeAfter  string
}

type RollDown struct {
	GoldAfter *float64
}

type MissedBailout struct{}

type CommsSnapshot struct{}

type IntentTag struct {
	PlanAt32 string
	Executed bool
	Tags     []string
}

type MistakeTag struct {
	Tag string
}

// Unknown is any event type the analytics do not interpret.
type Unknown struct {
	Type EventType
}

func (GiftSent) Kind() EventType      { return EventGiftSent }
func (RescueArrival) Kind() EventType { return EventRescueArrival }
func (RollDown) Kind() EventType      { return EventRollDown }
func (MissedBailout) Kind() EventType { return EventMissedBailout }
func (CommsSnapshot) Kind() EventType { return EventCommsSnapshot }
func (IntentTag) Kind() EventType     { return EventIntentTag }
func (MistakeTag) Kind() EventType    { return EventMistakeTag }
func (u Unknown) Kind() EventType     { return u.Type }

// DecodeDetail builds the typed view of a payload for the given event type.
func DecodeDetail(t EventType, payload map[string]any) Detail {
	switch t {
	case EventGiftSent:
		return GiftSent{
			GiftType:     payloadString(payload, "giftType"),
			Outcome:      payloadString(payload, "outcome"),
			PartnerState: payloadString(payload, "partnerState"),
		}
	case EventRescueArrival:
		atRisk, _ := payload["teammateAtRisk"].(bool)
		return RescueArrival{
			TeammateAtRisk:     atRisk,
			RoundOutcomeBefore: payloadString(payload, "roundOutcomeBefore"),
			RoundOutcomeAfter:  payloadString(payload, "roundOutcomeAfter"),
		}
	case EventRollDown:
		var d RollDown
		if v, ok := payloadNumber(payload, "goldAfter"); ok {
			d.GoldAfter = &v
		}
		return d
	case EventMissedBailout:
		return MissedBailout{}
	case EventCommsSnapshot:
		return CommsSnapshot{}
	case EventIntentTag:
		executed, _ := payload["executed"].(bool)
		return IntentTag{
			PlanAt32: payloadString(payload, "planAt32"),
			Executed: executed,
			Tags:     payloadStrings(payload, "tags"),
		}
	case EventMistakeTag:
		return MistakeTag{Tag: payloadString(payload, "tag")}
	default:
		return Unknown{Type: t}
	}
}

// Tag returns the payload "tag" value any event may carry.
func (e Event) Tag() string {
	return payloadString(e.Payload, "tag")
}

// RawEvent is an event as submitted by a user, before normalization.
type RawEvent struct {
	Type       string         `json:"type"`
	MatchID    string         `json:"matchId,omitempty"`
	Stage      string         `json:"stage,omitempty"`
	StageMajor *int           `json:"stageMajor,omitempty"`
	StageMinor *int           `json:"stageMinor,omitempty"`
	ActorSlot  string         `json:"actorSlot,omitempty"`
	TargetSlot string         `json:"targetSlot,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent normalizes a submitted event. Explicit stageMajor/stageMinor take
// precedence over the parsed stage string; fallbackMatchID is used when the
// event names no match.
func NewEvent(raw RawEvent, fallbackMatchID, id string, now time.Time) (Event, error) {
	t := strings.TrimSpace(raw.Type)
	if t == "" {
		return Event{}, ErrMissingEventType
	}
	stage := ParseStage(raw.Stage)
	if raw.StageMajor != nil {
		stage.Major = raw.StageMajor
	}
	if raw.StageMinor != nil {
		stage.Minor = raw.StageMinor
	}
	matchID := strings.TrimSpace(raw.MatchID)
	if matchID == "" {
		matchID = fallbackMatchID
	}
	payload := raw.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{
		ID:         id,
		Type:       EventType(t),
		MatchID:    matchID,
		Stage:      stage,
		ActorSlot:  raw.ActorSlot,
		TargetSlot: raw.TargetSlot,
		Payload:    payload,
		CreatedAt:  now,
		Detail:     DecodeDetail(EventType(t), payload),
	}, nil
}

func payloadString(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func payloadNumber(p map[string]any, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func payloadStrings(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
