package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// PlayerHistory is the known match-id list of one player in one region.
type PlayerHistory struct {
	Key                  string
	MatchIDs             []string // newest first
	UpdatedAt            time.Time
	LastSuccessfulSyncAt time.Time
	Diagnostics          []byte // JSON of the last sync
}

// HistoryKey keys player history by routing region and puuid.
func HistoryKey(region, puuid string) string {
	return region + ":" + puuid
}

// PlayerHistory returns the stored history for key; ok is false when none exists.
func (db *DB) PlayerHistory(key string) (h PlayerHistory, ok bool, err error) {
	var ids string
	var updated, synced int64
	var diag sql.NullString
	err = db.conn.QueryRow(`
		SELECT match_ids, updated_at, last_successful_sync_at, diagnostics
		FROM player_history WHERE history_key = ?`, key).Scan(&ids, &updated, &synced, &diag)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerHistory{Key: key}, false, nil
	}
	if err != nil {
		return PlayerHistory{}, false, err
	}
	h = PlayerHistory{
		Key:                  key,
		UpdatedAt:            time.UnixMilli(updated),
		LastSuccessfulSyncAt: time.UnixMilli(synced),
	}
	if diag.Valid {
		h.Diagnostics = []byte(diag.String)
	}
	if err := json.Unmarshal([]byte(ids), &h.MatchIDs); err != nil {
		return PlayerHistory{}, false, fmt.Errorf("decode player history %s: %w", key, err)
	}
	return h, true, nil
}

// SavePlayerHistory replaces the stored history for h.Key.
func (db *DB) SavePlayerHistory(h PlayerHistory) error {
	ids, err := json.Marshal(h.MatchIDs)
	if err != nil {
		return err
	}
	var diag sql.NullString
	if len(h.Diagnostics) > 0 {
		diag = sql.NullString{String: string(h.Diagnostics), Valid: true}
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO player_history(history_key, match_ids, updated_at, last_successful_sync_at, diagnostics)
		VALUES (?, ?, ?, ?, ?)`,
		h.Key, string(ids), h.UpdatedAt.UnixMilli(), h.LastSuccessfulSyncAt.UnixMilli(), diag)
	if err != nil {
		return fmt.Errorf("save player history %s: %w", h.Key, err)
	}
	return nil
}

// SavePlaybookSnapshot stores payload as the duo's current playbook snapshot.
func (db *DB) SavePlaybookSnapshot(duoID string, payload []byte, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO playbook_snapshots(duo_id, payload, created_at) VALUES (?, ?, ?)`,
		duoID, string(payload), at.UnixMilli())
	return err
}

// PlaybookSnapshot returns the duo's stored playbook JSON, or nil when none.
func (db *DB) PlaybookSnapshot(duoID string) ([]byte, time.Time, error) {
	var payload string
	var created int64
	err := db.conn.QueryRow(`SELECT payload, created_at FROM playbook_snapshots WHERE duo_id = ?`, duoID).
		Scan(&payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return []byte(payload), time.UnixMilli(created), nil
}
