package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var errInvalidEventJSON = errors.New("invalid event JSON")

// EventBatch is a submitted batch: its events plus the match id applied to
// events that name none.
type EventBatch struct {
	MatchID string
	Events  []RawEvent
}

// ParseEventBatch reads a single event object, an array of events, or an
// object of the form {"matchId": ..., "events": [...]}. Stage numbers may be
// given as numbers or numeric strings.
func ParseEventBatch(data []byte) (EventBatch, error) {
	if !gjson.ValidBytes(data) {
		return EventBatch{}, errInvalidEventJSON
	}
	doc := gjson.ParseBytes(data)
	var batch EventBatch
	list := doc
	if doc.IsObject() && doc.Get("events").IsArray() {
		batch.MatchID = strings.TrimSpace(doc.Get("matchId").String())
		list = doc.Get("events")
	}
	if list.IsObject() {
		batch.Events = append(batch.Events, rawEvent(list))
		return batch, nil
	}
	if !list.IsArray() {
		return EventBatch{}, errInvalidEventJSON
	}
	list.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			batch.Events = append(batch.Events, rawEvent(v))
		}
		return true
	})
	return batch, nil
}

func rawEvent(v gjson.Result) RawEvent {
	r := RawEvent{
		Type:       v.Get("type").String(),
		MatchID:    v.Get("matchId").String(),
		Stage:      v.Get("stage").String(),
		StageMajor: optionalInt(v.Get("stageMajor")),
		StageMinor: optionalInt(v.Get("stageMinor")),
		ActorSlot:  v.Get("actorSlot").String(),
		TargetSlot: v.Get("targetSlot").String(),
	}
	if p, ok := v.Get("payload").Value().(map[string]any); ok {
		r.Payload = p
	}
	return r
}

func optionalInt(v gjson.Result) *int {
	switch v.Type {
	case gjson.Number:
		n := int(v.Int())
		return &n
	case gjson.String:
		if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
			return &n
		}
	}
	return nil
}
