package storage

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
)

// Stateless encoder and decoder shared by all payload reads and writes.
var (
	payloadEncoder = must(zstd.NewWriter(nil))
	payloadDecoder = must(zstd.NewReader(nil))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("storage: init zstd: %v", err))
	}
	return v
}

const dayMs = int64(24 * time.Hour / time.Millisecond)

// UpsertMatches stores normalized matches for a duo, replacing any with the
// same id, then trims the duo to its newest MaxDuoMatches.
func (db *DB) UpsertMatches(duoID string, matches []model.Match) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO duo_matches(duo_id, match_id, game_datetime, team_placement, same_team, payload)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode match %s: %w", m.ID, err)
		}
		_, err = stmt.Exec(duoID, m.ID, m.GameDatetime, aggregator.TeamPlacement(m), boolInt(m.SameTeam),
			payloadEncoder.EncodeAll(raw, nil))
		if err != nil {
			return fmt.Errorf("insert duo_matches %s: %w", m.ID, err)
		}
	}
	if _, err := tx.Exec(`
		DELETE FROM duo_matches WHERE duo_id = ?1 AND match_id NOT IN (
			SELECT match_id FROM duo_matches WHERE duo_id = ?1
			ORDER BY game_datetime DESC, match_id DESC LIMIT ?2)`,
		duoID, model.MaxDuoMatches); err != nil {
		return fmt.Errorf("cap duo_matches: %w", err)
	}
	return tx.Commit()
}

// HasMatch reports whether the duo already stores matchID.
func (db *DB) HasMatch(duoID, matchID string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM duo_matches WHERE duo_id = ? AND match_id = ?`, duoID, matchID).Scan(&n)
	return n > 0, err
}

// MatchIDs lists the stored match ids for a duo.
func (db *DB) MatchIDs(duoID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT match_id FROM duo_matches WHERE duo_id = ?`, duoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Matches returns every stored match for a duo, newest first.
func (db *DB) Matches(duoID string) ([]model.Match, error) {
	return db.queryMatches(`SELECT payload FROM duo_matches WHERE duo_id = ? ORDER BY game_datetime DESC`, duoID)
}

func (db *DB) queryMatches(query string, args ...any) ([]model.Match, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		raw, err := payloadDecoder.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress match payload: %w", err)
		}
		var m model.Match
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode match payload: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// WindowData is the slice of a duo's record inside a time window.
type WindowData struct {
	Days    int
	Cutoff  time.Time
	Matches []model.Match
	Events  []model.Event
}

// ClampWindowDays bounds a requested window to 1..365 days; zero means 30.
func ClampWindowDays(days int) int {
	if days == 0 {
		days = 30
	}
	return min(365, max(1, days))
}

// Window selects the matches played since now-days and the events that are
// unattached, attached to one of those matches, or created since the cutoff.
func (db *DB) Window(duoID string, days int, now time.Time) (WindowData, error) {
	days = ClampWindowDays(days)
	cutoff := now.UnixMilli() - int64(days)*dayMs
	matches, err := db.queryMatches(`
		SELECT payload FROM duo_matches WHERE duo_id = ? AND game_datetime >= ?
		ORDER BY game_datetime DESC`, duoID, cutoff)
	if err != nil {
		return WindowData{}, fmt.Errorf("window matches: %w", err)
	}
	inWindow := make(map[string]bool, len(matches))
	for _, m := range matches {
		inWindow[m.ID] = true
	}
	all, err := db.Events(duoID)
	if err != nil {
		return WindowData{}, fmt.Errorf("window events: %w", err)
	}
	var events []model.Event
	for _, e := range all {
		if e.MatchID == "" || inWindow[e.MatchID] || e.CreatedAt.UnixMilli() >= cutoff {
			events = append(events, e)
		}
	}
	return WindowData{Days: days, Cutoff: time.UnixMilli(cutoff), Matches: matches, Events: events}, nil
}
