package storage

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pable/tft-duo-metrics/internal/model"
)

// AppendEvents adds events to a duo's log in order, then trims the log to
// its newest MaxDuoEvents entries.
func (db *DB) AppendEvents(duoID string, events []model.Event) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := appendEvents(tx, duoID, events); err != nil {
		return err
	}
	return tx.Commit()
}

func appendEvents(tx *sql.Tx, duoID string, events []model.Event) error {
	stmt, err := tx.Prepare(`
		INSERT INTO duo_events(duo_id, event_id, event_type, match_id, stage_major, stage_minor,
		                       actor_slot, target_slot, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("encode event %s payload: %w", e.ID, err)
		}
		_, err = stmt.Exec(duoID, e.ID, string(e.Type), nullString(e.MatchID),
			nullInt(e.Stage.Major), nullInt(e.Stage.Minor),
			nullString(e.ActorSlot), nullString(e.TargetSlot), string(payload), e.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert duo_events %s: %w", e.ID, err)
		}
	}
	_, err = tx.Exec(`
		DELETE FROM duo_events WHERE duo_id = ?1 AND seq NOT IN (
			SELECT seq FROM duo_events WHERE duo_id = ?1 ORDER BY seq DESC LIMIT ?2)`,
		duoID, model.MaxDuoEvents)
	if err != nil {
		return fmt.Errorf("cap duo_events: %w", err)
	}
	return nil
}

// Events returns a duo's event log in append order with typed details.
func (db *DB) Events(duoID string) ([]model.Event, error) {
	rows, err := db.conn.Query(`
		SELECT event_id, event_type, match_id, stage_major, stage_minor,
		       actor_slot, target_slot, payload, created_at
		FROM duo_events WHERE duo_id = ? ORDER BY seq`, duoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			e                    model.Event
			typ, payload         string
			matchID, actor, targ sql.NullString
			major, minor         sql.NullInt64
			created              int64
		)
		if err := rows.Scan(&e.ID, &typ, &matchID, &major, &minor, &actor, &targ, &payload, &created); err != nil {
			return nil, err
		}
		e.Type = model.EventType(typ)
		e.MatchID, e.ActorSlot, e.TargetSlot = matchID.String, actor.String, targ.String
		e.Stage = model.Stage{Major: intPtr(major), Minor: intPtr(minor)}
		e.CreatedAt = time.UnixMilli(created)
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode event %s payload: %w", e.ID, err)
		}
		if e.Payload == nil {
			e.Payload = map[string]any{}
		}
		e.Detail = model.DecodeDetail(e.Type, e.Payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddJournal stores a journal entry together with the events derived from it,
// in one transaction.
func (db *DB) AddJournal(duoID string, j model.Journal, derived []model.Event) error {
	tags, err := json.Marshal(j.Tags)
	if err != nil {
		return err
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO duo_journals(duo_id, journal_id, match_id, plan_at_32, executed, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		duoID, j.ID, nullString(j.MatchID), nullString(j.PlanAt32), boolInt(j.Executed), string(tags), j.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert duo_journals: %w", err)
	}
	_, err = tx.Exec(`
		DELETE FROM duo_journals WHERE duo_id = ?1 AND seq NOT IN (
			SELECT seq FROM duo_journals WHERE duo_id = ?1 ORDER BY seq DESC LIMIT ?2)`,
		duoID, model.MaxDuoJournals)
	if err != nil {
		return fmt.Errorf("cap duo_journals: %w", err)
	}
	if err := appendEvents(tx, duoID, derived); err != nil {
		return err
	}
	return tx.Commit()
}

// Journals returns a duo's journal entries, oldest first.
func (db *DB) Journals(duoID string) ([]model.Journal, error) {
	rows, err := db.conn.Query(`
		SELECT journal_id, match_id, plan_at_32, executed, tags, created_at
		FROM duo_journals WHERE duo_id = ? ORDER BY seq`, duoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Journal
	for rows.Next() {
		var (
			j             model.Journal
			matchID, plan sql.NullString
			executed      int
			tags          string
			created       int64
		)
		if err := rows.Scan(&j.ID, &matchID, &plan, &executed, &tags, &created); err != nil {
			return nil, err
		}
		j.MatchID, j.PlanAt32, j.Executed = matchID.String, plan.String, executed != 0
		j.CreatedAt = time.UnixMilli(created)
		if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
			return nil, fmt.Errorf("decode journal %s tags: %w", j.ID, err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
