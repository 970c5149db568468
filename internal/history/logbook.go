package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itbasis/go-clock"

	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

// journalStage is where a journal's intent tag is placed on the timeline.
var journalStage = model.NewStage(3, 2)

// Logbook records manual events and journals for a stored duo.
type Logbook struct {
	DB    *storage.DB
	Clock clock.Clock
	// NewID generates event and journal ids; nil means random UUIDs.
	NewID func() string
}

func (l *Logbook) id() string {
	if l.NewID != nil {
		return l.NewID()
	}
	return uuid.NewString()
}

func (l *Logbook) now() time.Time {
	if l.Clock == nil {
		return time.Now()
	}
	return l.Clock.Now()
}

// AddEvents normalizes and appends a batch. Every event must carry a type;
// a bad event rejects the whole batch.
func (l *Logbook) AddEvents(duoID string, batch model.EventBatch) ([]model.Event, error) {
	if len(batch.Events) == 0 {
		return nil, errors.New("no events to add")
	}
	now := l.now()
	events := make([]model.Event, 0, len(batch.Events))
	for i, raw := range batch.Events {
		e, err := model.NewEvent(raw, batch.MatchID, l.id(), now)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	if err := l.DB.AppendEvents(duoID, events); err != nil {
		return nil, err
	}
	return events, nil
}

// JournalEntry is a submitted journal before normalization.
type JournalEntry struct {
	MatchID  string
	PlanAt32 string
	Executed bool
	Tags     []string
}

// AddJournal stores the journal plus one intent_tag event at stage 3.2 and one
// mistake_tag event per tag.
func (l *Logbook) AddJournal(duoID string, in JournalEntry) (model.Journal, []model.Event, error) {
	now := l.now()
	tags := make([]string, 0, model.MaxJournalTags)
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" && len(tags) < model.MaxJournalTags {
			tags = append(tags, t)
		}
	}
	j := model.Journal{
		ID:        l.id(),
		MatchID:   strings.TrimSpace(in.MatchID),
		PlanAt32:  strings.TrimSpace(in.PlanAt32),
		Executed:  in.Executed,
		Tags:      tags,
		CreatedAt: now,
	}

	tagsAny := make([]any, len(tags))
	for i, t := range tags {
		tagsAny[i] = t
	}
	var plan any
	if j.PlanAt32 != "" {
		plan = j.PlanAt32
	}
	intent := map[string]any{"planAt32": plan, "executed": j.Executed, "tags": tagsAny}
	derived := []model.Event{newDerived(l.id(), model.EventIntentTag, j.MatchID, intent, now)}
	for _, t := range tags {
		derived = append(derived, newDerived(l.id(), model.EventMistakeTag, j.MatchID, map[string]any{"tag": t}, now))
	}
	if err := l.DB.AddJournal(duoID, j, derived); err != nil {
		return model.Journal{}, nil, err
	}
	return j, derived, nil
}

func newDerived(id string, t model.EventType, matchID string, payload map[string]any, now time.Time) model.Event {
	return model.Event{
		ID:        id,
		Type:      t,
		MatchID:   matchID,
		Stage:     journalStage,
		Payload:   payload,
		CreatedAt: now,
		Detail:    model.DecodeDetail(t, payload),
	}
}
