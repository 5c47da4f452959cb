package models

import (
	"github.com/shopspring/decimal"
)

// MatchType represents the card format
type MatchType string

const (
	MatchType1v1 MatchType = "1v1"
	MatchType2v2 MatchType = "2v2"
)

// MatchPhase represents the scheduler's state for the current cycle
type MatchPhase string

const (
	MatchPhaseIdle        MatchPhase = "idle"
	MatchPhaseScheduling  MatchPhase = "scheduling"
	MatchPhaseOpenForBets MatchPhase = "open_for_bets"
	MatchPhaseLive        MatchPhase = "live"
	MatchPhaseSettling    MatchPhase = "settling"
)

// Bet is a single user's wager on one side of the current match.
// A repeat bet on the same side merges into Amount.
type Bet struct {
	UserID string
	Side   int
	Amount int64
}

// Match is the ephemeral card for the current cycle. Exactly one exists
// process-wide; it is created when the scheduler books a card and
// discarded once settlement display completes. Sides are indexed 0 and 1.
type Match struct {
	ID      string
	Type    MatchType
	Sides   [2][]*Fighter
	SideIDs [2]string
	Odds    [2]decimal.Decimal

	settled bool
}

// SideFor returns the side index for a side identifier, or -1.
// For 1v1 cards the identifier is the fighter ID; for 2v2 the team ID.
func (m *Match) SideFor(sideID string) int {
	for i, id := range m.SideIDs {
		if id == sideID {
			return i
		}
	}
	return -1
}

// Participants returns every fighter on both sides
func (m *Match) Participants() []*Fighter {
	out := make([]*Fighter, 0, len(m.Sides[0])+len(m.Sides[1]))
	out = append(out, m.Sides[0]...)
	out = append(out, m.Sides[1]...)
	return out
}

// SideNames returns the display names of both sides
func (m *Match) SideNames() [2]string {
	var names [2]string
	for i := range m.Sides {
		if len(m.Sides[i]) > 0 {
			names[i] = m.Sides[i][0].Name
		}
	}
	return names
}

// WinnerSide maps a resolver winner ID to a side index, or -1 when the
// ID does not belong to any participant.
func (m *Match) WinnerSide(winnerID string) int {
	for i := range m.Sides {
		for _, f := range m.Sides[i] {
			if f.ID == winnerID {
				return i
			}
		}
	}
	return -1
}

// ParticipantByID returns the fighter with the given ID, nil when the ID
// belongs to no participant
func (m *Match) ParticipantByID(id string) *Fighter {
	for i := range m.Sides {
		for _, f := range m.Sides[i] {
			if f.ID == id {
				return f
			}
		}
	}
	return nil
}

// MarkSettled flags the match as settled. Returns false if it already was;
// settlement is applied at most once per match instance.
func (m *Match) MarkSettled() bool {
	if m.settled {
		return false
	}
	m.settled = true
	return true
}

// IsSettled reports whether settlement has been applied
func (m *Match) IsSettled() bool {
	return m.settled
}
