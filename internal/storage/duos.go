package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pable/tft-duo-metrics/internal/model"
)

// StableDuoID is the order-independent id of a puuid pair.
func StableDuoID(puuidA, puuidB string) string {
	ids := []string{puuidA, puuidB}
	sort.Strings(ids)
	return strings.Join(ids, "::")
}

// EnsureDuo creates the duo record if it does not exist yet. An existing
// record keeps its creation time and slot assignment but refreshes names.
func (db *DB) EnsureDuo(d model.Duo) error {
	_, err := db.conn.Exec(`
		INSERT INTO duos(duo_id, player_a_puuid, player_b_puuid, game_name_a, tag_line_a,
		                 game_name_b, tag_line_b, region, platform, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(duo_id) DO UPDATE SET
			game_name_a = excluded.game_name_a, tag_line_a = excluded.tag_line_a,
			game_name_b = excluded.game_name_b, tag_line_b = excluded.tag_line_b
		WHERE duos.player_a_puuid = excluded.player_a_puuid`,
		d.ID, d.PlayerAPUID, d.PlayerBPUID, d.GameNameA, d.TagLineA,
		d.GameNameB, d.TagLineB, d.Region, d.Platform, d.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("ensure duo %s: %w", d.ID, err)
	}
	return nil
}

const duoColumns = `duo_id, player_a_puuid, player_b_puuid, game_name_a, tag_line_a,
	game_name_b, tag_line_b, region, platform, created_at`

func scanDuo(row interface{ Scan(...any) error }) (model.Duo, error) {
	var d model.Duo
	var created int64
	err := row.Scan(&d.ID, &d.PlayerAPUID, &d.PlayerBPUID, &d.GameNameA, &d.TagLineA,
		&d.GameNameB, &d.TagLineB, &d.Region, &d.Platform, &created)
	d.CreatedAt = time.UnixMilli(created)
	return d, err
}

// GetDuo returns the duo with the exact id.
func (db *DB) GetDuo(id string) (model.Duo, error) {
	d, err := scanDuo(db.conn.QueryRow(`SELECT `+duoColumns+` FROM duos WHERE duo_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Duo{}, fmt.Errorf("%w: %s", ErrDuoNotFound, id)
	}
	return d, err
}

// ResolveDuo finds a duo by id prefix. An ambiguous prefix is an error.
func (db *DB) ResolveDuo(prefix string) (model.Duo, error) {
	if d, err := db.GetDuo(prefix); err == nil {
		return d, nil
	}
	rows, err := db.conn.Query(`SELECT `+duoColumns+` FROM duos WHERE substr(duo_id, 1, length(?1)) = ?1 ORDER BY duo_id LIMIT 2`,
		prefix)
	if err != nil {
		return model.Duo{}, err
	}
	defer rows.Close()
	var found []model.Duo
	for rows.Next() {
		d, err := scanDuo(rows)
		if err != nil {
			return model.Duo{}, err
		}
		found = append(found, d)
	}
	if err := rows.Err(); err != nil {
		return model.Duo{}, err
	}
	switch len(found) {
	case 0:
		return model.Duo{}, fmt.Errorf("%w: %q", ErrDuoNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return model.Duo{}, fmt.Errorf("duo prefix %q is ambiguous", prefix)
	}
}

// DuoListing is one row of ListDuos.
type DuoListing struct {
	Duo        model.Duo
	Matches    int
	Events     int
	LastGameAt time.Time
}

// ListDuos returns all duos with their stored counts, most recently played first.
func (db *DB) ListDuos() ([]DuoListing, error) {
	rows, err := db.conn.Query(`
		SELECT ` + duoColumns + `,
		       (SELECT COUNT(1) FROM duo_matches m WHERE m.duo_id = d.duo_id),
		       (SELECT COUNT(1) FROM duo_events e WHERE e.duo_id = d.duo_id),
		       COALESCE((SELECT MAX(game_datetime) FROM duo_matches m WHERE m.duo_id = d.duo_id), 0)
		FROM duos d
		ORDER BY 13 DESC, duo_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuoListing
	for rows.Next() {
		var l DuoListing
		var created, last int64
		if err := rows.Scan(&l.Duo.ID, &l.Duo.PlayerAPUID, &l.Duo.PlayerBPUID, &l.Duo.GameNameA, &l.Duo.TagLineA,
			&l.Duo.GameNameB, &l.Duo.TagLineB, &l.Duo.Region, &l.Duo.Platform, &created,
			&l.Matches, &l.Events, &last); err != nil {
			return nil, err
		}
		l.Duo.CreatedAt = time.UnixMilli(created)
		if last > 0 {
			l.LastGameAt = time.UnixMilli(last)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
