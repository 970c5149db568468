package model

import "time"

// Slot identifies one side of the tracked duo.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// ---- Normalized match data ----

// Trait is one active or inactive trait on a board.
type Trait struct {
	Name        string `json:"name"`
	NumUnits    int    `json:"numUnits"`
	Style       int    `json:"style"`
	TierCurrent int    `json:"tierCurrent"`
}

// Unit is one champion on a board.
type Unit struct {
	CharacterID string   `json:"characterId"`
	Name        string   `json:"name,omitempty"`
	Tier        int      `json:"tier"`
	Rarity      int      `json:"rarity"`
	ItemNames   []string `json:"itemNames"`
}

// Companion is the little legend a participant played with.
type Companion struct {
	ContentID string `json:"contentId,omitempty"`
	ItemID    int    `json:"itemId,omitempty"`
	SkinID    int    `json:"skinId,omitempty"`
	Species   string `json:"species,omitempty"`
}

// Cosmetics is the merged view of cosmetic fields across payload variants.
type Cosmetics struct {
	Version   int            `json:"version"`
	Available bool           `json:"available"`
	Source    string         `json:"source"`
	Fields    map[string]any `json:"fields"`
}

// Arena is the arena skin shortcut clients read directly.
type Arena struct {
	ArenaID   any    `json:"arenaId"`
	SkinID    any    `json:"skinId"`
	Available bool   `json:"available"`
	Source    string `json:"source"`
}

// PlayerSummary is one participant after normalization. Zero values mean the
// upstream payload did not carry the field.
type PlayerSummary struct {
	PUUID                string     `json:"puuid"`
	RiotIDGameName       string     `json:"riotIdGameName,omitempty"`
	RiotIDTagline        string     `json:"riotIdTagline,omitempty"`
	Placement            int        `json:"placement"`
	Win                  bool       `json:"win"`
	Level                int        `json:"level"`
	LastRound            int        `json:"lastRound"`
	GoldLeft             int        `json:"goldLeft"`
	PlayersEliminated    int        `json:"playersEliminated"`
	TotalDamageToPlayers int        `json:"totalDamageToPlayers"`
	TimeEliminated       float64    `json:"timeEliminated"`
	PartnerGroupID       int        `json:"partnerGroupId"`
	Missions             any        `json:"missions,omitempty"`
	HasAugmentsField     bool       `json:"hasAugmentsField"`
	Augments             []string   `json:"augments"`
	Companion            *Companion `json:"companion,omitempty"`
	Cosmetics            Cosmetics  `json:"cosmetics"`
	Arena                Arena      `json:"arena"`
	Traits               []Trait    `json:"traits"`
	Units                []Unit     `json:"units"`
}

// PlacementOr8 returns the placement, treating a missing value as last place.
func (p PlayerSummary) PlacementOr8() int {
	if p.Placement <= 0 {
		return 8
	}
	return p.Placement
}

// Match is one game the duo played together. Immutable once fetched.
type Match struct {
	ID           string          `json:"id"`
	QueueID      int             `json:"queueId"`
	QueueLabel   string          `json:"queueLabel"`
	GameDatetime int64           `json:"gameDatetime"` // epoch ms
	GameLength   float64         `json:"gameLength"`
	SetNumber    int             `json:"setNumber"`
	GameVersion  string          `json:"gameVersion"`
	Patch        string          `json:"patch"`
	PlayerA      PlayerSummary   `json:"playerA"`
	PlayerB      PlayerSummary   `json:"playerB"`
	SameTeam     bool            `json:"sameTeam"`
	Lobby        []PlayerSummary `json:"lobby"`
}

// Player returns the summary for the given duo slot.
func (m Match) Player(s Slot) PlayerSummary {
	if s == SlotB {
		return m.PlayerB
	}
	return m.PlayerA
}

// Partner returns the summary opposite the given slot.
func (m Match) Partner(s Slot) PlayerSummary {
	if s == SlotB {
		return m.PlayerA
	}
	return m.PlayerB
}

// DuoPlacement is the worse of the two individual placements.
func (m Match) DuoPlacement() int {
	return max(m.PlayerA.PlacementOr8(), m.PlayerB.PlacementOr8())
}

// PlayedAt converts GameDatetime to a time.Time.
func (m Match) PlayedAt() time.Time {
	return time.UnixMilli(m.GameDatetime)
}

// ---- Duo bookkeeping ----

// Duo is the persistent record header for a tracked pair.
type Duo struct {
	ID          string    `json:"duoId"`
	PlayerAPUID string    `json:"playerAPuuid"`
	PlayerBPUID string    `json:"playerBPuuid"`
	GameNameA   string    `json:"gameNameA"`
	TagLineA    string    `json:"tagLineA"`
	GameNameB   string    `json:"gameNameB"`
	TagLineB    string    `json:"tagLineB"`
	Region      string    `json:"region"`
	Platform    string    `json:"platform"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Label renders the duo as "NameA#TAG + NameB#TAG".
func (d Duo) Label() string {
	return d.GameNameA + "#" + d.TagLineA + " + " + d.GameNameB + "#" + d.TagLineB
}

// Journal is a short post-game note, one per submission.
type Journal struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId,omitempty"`
	PlanAt32  string    `json:"planAt32,omitempty"`
	Executed  bool      `json:"executed"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// Record caps applied after every write.
const (
	MaxDuoMatches  = 600
	MaxDuoEvents   = 6000
	MaxDuoJournals = 1000
	MaxJournalTags = 8
)
