// Package normalize maps raw Riot TFT match payloads into the stable model
// shape. The upstream schema drifts between seasons, so every field is read
// through a fallback chain of current and legacy names.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/pable/tft-duo-metrics/internal/model"
)

// ErrParticipantMissing is returned when a tracked puuid is not in the lobby.
var ErrParticipantMissing = errors.New("participant not found in match")

var queueLabels = map[int]string{
	1090: "Ranked",
	1100: "Normal",
	1110: "Hyper Roll",
	1130: "Double Up",
	1160: "Ranked",
	6110: "Revival",
}

// QueueLabel returns a display name for a queue id.
func QueueLabel(id int) string {
	if l, ok := queueLabels[id]; ok {
		return l
	}
	if id == 0 {
		return "Queue ?"
	}
	return "Queue " + strconv.Itoa(id)
}

var patchRe = regexp.MustCompile(`(\d+)\.(\d+)`)

// Patch extracts "X.Y" from a game_version string, or "" when absent.
func Patch(gameVersion string) string {
	m := patchRe.FindStringSubmatch(gameVersion)
	if m == nil {
		return ""
	}
	return m[1] + "." + m[2]
}

// Match normalizes a raw match document for the duo identified by puuidA and
// puuidB. fallbackID is used when the payload carries no match id.
func Match(raw []byte, fallbackID, puuidA, puuidB string) (model.Match, error) {
	if !gjson.ValidBytes(raw) {
		return model.Match{}, fmt.Errorf("match %s: invalid JSON", fallbackID)
	}
	doc := gjson.ParseBytes(raw)
	info := doc.Get("info")

	var (
		lobby        []model.PlayerSummary
		a, b         model.PlayerSummary
		haveA, haveB bool
	)
	info.Get("participants").ForEach(func(_, p gjson.Result) bool {
		s := Participant(p)
		switch s.PUUID {
		case puuidA:
			a, haveA = s, true
		case puuidB:
			b, haveB = s, true
		}
		lobby = append(lobby, s)
		return true
	})
	if !haveA || !haveB {
		return model.Match{}, fmt.Errorf("match %s: %w", fallbackID, ErrParticipantMissing)
	}
	sort.SliceStable(lobby, func(i, j int) bool {
		return lobbyRank(lobby[i]) < lobbyRank(lobby[j])
	})

	id := str(doc, "metadata.match_id", "metadata.matchId")
	if id == "" {
		id = fallbackID
	}
	queueID := integer(info, "queue_id", "queueId")
	version := str(info, "game_version", "gameVersion")
	return model.Match{
		ID:           id,
		QueueID:      queueID,
		QueueLabel:   QueueLabel(queueID),
		GameDatetime: int64(number(info, "game_datetime", "gameDatetime")),
		GameLength:   number(info, "game_length", "gameLength"),
		SetNumber:    integer(info, "tft_set_number", "setNumber"),
		GameVersion:  version,
		Patch:        Patch(version),
		PlayerA:      a,
		PlayerB:      b,
		SameTeam:     a.PartnerGroupID != 0 && a.PartnerGroupID == b.PartnerGroupID,
		Lobby:        lobby,
	}, nil
}

func lobbyRank(p model.PlayerSummary) int {
	if p.Placement <= 0 {
		return 99
	}
	return p.Placement
}

// Participant normalizes one entry of info.participants.
func Participant(p gjson.Result) model.PlayerSummary {
	cosmetics := Cosmetics(p)
	s := model.PlayerSummary{
		PUUID:                str(p, "puuid"),
		RiotIDGameName:       str(p, "riotIdGameName", "riotIdName", "gameName"),
		RiotIDTagline:        str(p, "riotIdTagline", "tagLine"),
		Placement:            integer(p, "placement"),
		Win:                  p.Get("win").Bool(),
		Level:                integer(p, "level"),
		LastRound:            integer(p, "last_round", "lastRound"),
		GoldLeft:             integer(p, "gold_left", "goldLeft"),
		PlayersEliminated:    integer(p, "players_eliminated", "playersEliminated", "playerEliminations"),
		TotalDamageToPlayers: integer(p, "total_damage_to_players", "totalDamageToPlayers"),
		TimeEliminated: number(p, "time_eliminated", "timeEliminated", "eliminationTimestamp",
			"eliminatedAt", "timeEliminatedSeconds", "eliminationTime"),
		PartnerGroupID:   integer(p, "partner_group_id", "partnerGroupId"),
		HasAugmentsField: p.Get("augments").Exists(),
		Augments:         stringList(p.Get("augments")),
		Companion:        Companion(p.Get("companion")),
		Cosmetics:        cosmetics,
		Arena:            arena(cosmetics),
		Traits:           traits(p.Get("traits")),
		Units:            units(p.Get("units")),
	}
	if m := p.Get("missions"); m.Exists() {
		s.Missions = m.Value()
	}
	return s
}

// Companion reads the little legend block; current and legacy key spellings
// produce the same value.
func Companion(c gjson.Result) *model.Companion {
	if !c.IsObject() {
		return nil
	}
	return &model.Companion{
		ContentID: str(c, "content_ID", "contentId"),
		ItemID:    integer(c, "item_ID", "itemId"),
		SkinID:    integer(c, "skin_ID", "skinId"),
		Species:   str(c, "species"),
	}
}

// Cosmetics merges arena and tactician fields across payload variants.
// Empty values never overwrite present ones.
func Cosmetics(p gjson.Result) model.Cosmetics {
	fields := map[string]any{}
	set := func(key string, paths ...string) {
		for _, path := range paths {
			v := p.Get(path)
			if !present(v) {
				continue
			}
			fields[key] = v.Value()
			return
		}
	}
	set("arenaId", "arena_id", "arenaId")
	set("arenaSkinId", "arena_skin_id", "arenaSkinId")
	set("boomId", "boom_id", "boomId")
	set("tacticianItemId", "companion.item_ID", "companion.itemId")
	set("tacticianSkinId", "companion.skin_ID", "companion.skinId")

	if len(fields) == 0 {
		return model.Cosmetics{Version: 1, Source: "tft-match-v1", Fields: map[string]any{}}
	}
	return model.Cosmetics{Version: 1, Available: true, Source: "tft-match-v1+companion", Fields: fields}
}

func arena(c model.Cosmetics) model.Arena {
	id, hasID := c.Fields["arenaId"]
	skin, hasSkin := c.Fields["arenaSkinId"]
	if !hasID && !hasSkin {
		return model.Arena{Source: c.Source}
	}
	return model.Arena{ArenaID: id, SkinID: skin, Available: true, Source: c.Source}
}

func traits(arr gjson.Result) []model.Trait {
	out := []model.Trait{}
	arr.ForEach(func(_, t gjson.Result) bool {
		out = append(out, model.Trait{
			Name:        str(t, "name"),
			NumUnits:    integer(t, "num_units", "numUnits"),
			Style:       integer(t, "style"),
			TierCurrent: integer(t, "tier_current", "tierCurrent"),
		})
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Style != out[j].Style {
			return out[i].Style > out[j].Style
		}
		return out[i].NumUnits > out[j].NumUnits
	})
	return out
}

func units(arr gjson.Result) []model.Unit {
	out := []model.Unit{}
	arr.ForEach(func(_, u gjson.Result) bool {
		items := u.Get("itemNames")
		if !items.Exists() {
			items = u.Get("items")
		}
		out = append(out, model.Unit{
			CharacterID: str(u, "character_id", "characterId"),
			Name:        str(u, "name"),
			Tier:        integer(u, "tier"),
			Rarity:      integer(u, "rarity"),
			ItemNames:   stringList(items),
		})
		return true
	})
	return out
}

// ---- fallback-chain readers ----

func present(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.String:
		return v.Str != ""
	}
	return v.Exists()
}

func first(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); present(v) {
			return v
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result, paths ...string) string {
	return first(r, paths...).String()
}

func integer(r gjson.Result, paths ...string) int {
	return int(first(r, paths...).Int())
}

func number(r gjson.Result, paths ...string) float64 {
	return first(r, paths...).Float()
}

func stringList(arr gjson.Result) []string {
	out := []string{}
	arr.ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}
