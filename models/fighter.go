package models

import (
	"time"
)

// FighterStatus represents the roster state of a fighter
type FighterStatus string

const (
	FighterStatusActive   FighterStatus = "active"
	FighterStatusInactive FighterStatus = "inactive"
	FighterStatusRetired  FighterStatus = "retired"
)

// Fighter represents a combatant on the roster
type Fighter struct {
	ID          string        `db:"id"`
	Name        string        `db:"name"`
	ImageFile   string        `db:"image_file"`
	Description string        `db:"description"`
	Personality string        `db:"personality"`
	Alignment   string        `db:"alignment"`
	Titles      []string      `db:"titles"`
	Popularity  int           `db:"popularity"`
	Status      FighterStatus `db:"status"`

	// Combat profile, zero until first assigned by the resolver
	HP      int `db:"hp"`
	Agility int `db:"agility"`
	Power   int `db:"power"`

	Wins     int  `db:"wins"`
	Losses   int  `db:"losses"`
	Approved bool `db:"approved"`

	CreatorID *string `db:"creator_id"`
	ManagerID *string `db:"manager_id"`
	TeamID    *string `db:"team_id"`

	CreatedAt time.Time `db:"created_at"`
}

// TotalFights returns the number of matches this fighter has been in
func (f *Fighter) TotalFights() int {
	return f.Wins + f.Losses
}

// HasProfile reports whether the combat profile has been assigned.
// A profile is assigned exactly once, on the fighter's first match.
func (f *Fighter) HasProfile() bool {
	return f.HP > 0
}

// IsSchedulable reports whether the fighter can be booked for a match
func (f *Fighter) IsSchedulable() bool {
	return f.Approved && f.Status == FighterStatusActive
}

// SkillScore is the fighter's record-based strength estimate
func (f *Fighter) SkillScore() float64 {
	return float64(f.Wins+1) / float64(f.Losses+1)
}

// HoldsTitle reports whether the fighter currently holds any belt
func (f *Fighter) HoldsTitle() bool {
	return len(f.Titles) > 0
}
