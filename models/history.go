package models

import (
	"time"
)

// RosterEntry is the slim fighter reference stored inside a history row
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchRecord is an immutable match history entry
type MatchRecord struct {
	ID             int64           `db:"id"`
	FoughtAt       time.Time       `db:"fought_at"`
	MatchType      MatchType       `db:"match_type"`
	Rosters        [][]RosterEntry `db:"rosters"`
	WinnerID       string          `db:"winner_id"`
	WinnerName     string          `db:"winner_name"`
	Summary        string          `db:"summary"`
	TitleBout      bool            `db:"title_bout"`
	TitleExchanged *string         `db:"title_exchanged"`
}

// Rejection is an append-only rejection ledger entry. Rejected fighters
// are removed from the roster and never re-approved automatically.
type Rejection struct {
	FighterID string    `db:"fighter_id"`
	Name      string    `db:"name"`
	Reason    string    `db:"reason"`
	Image     string    `db:"image"`
	CreatedAt time.Time `db:"created_at"`
}
