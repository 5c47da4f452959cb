package models

// ProfileDelta carries the optional per-fighter fields the resolver may
// return. Combat stats are only honored on first assignment; bio fields
// and popularity drift may arrive on any match.
type ProfileDelta struct {
	Name            string `json:"name,omitempty"`
	Description     string `json:"description,omitempty"`
	Alignment       string `json:"alignment,omitempty"`
	HP              int    `json:"hp,omitempty"`
	Agility         int    `json:"agility,omitempty"`
	Power           int    `json:"power,omitempty"`
	PopularityDrift int    `json:"popularity_drift,omitempty"`
}

// TurnEntry is one action in the resolver's battle log
type TurnEntry struct {
	Actor       string `json:"actor"`
	Action      string `json:"action"`
	Target      string `json:"target"`
	Damage      int    `json:"damage"`
	Description string `json:"description"`
	RemainingHP int    `json:"remaining_hp"`
}

// FightOutcome is the validated result of a Combat Resolver call
type FightOutcome struct {
	NewStats  map[string]ProfileDelta `json:"new_stats"`
	BattleLog []TurnEntry             `json:"battle_log"`
	WinnerID  string                  `json:"winner_id"`
	Summary   string                  `json:"summary"`

	// HighVolatility widens the allowed popularity drift
	HighVolatility bool `json:"-"`
}

// ModerationDecision is the Moderation Service's verdict for one pending fighter
type ModerationDecision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// TitleOutcome distinguishes the three belt scenarios a settlement can produce
type TitleOutcome string

const (
	TitleOutcomeNone        TitleOutcome = "none"
	TitleOutcomeTransferred TitleOutcome = "transferred"
	TitleOutcomeRetained    TitleOutcome = "retained"
)

// TitleChange records what happened to belts in a settlement
type TitleChange struct {
	Outcome TitleOutcome
	Belt    string
}

// SettlementResult is everything a completed settlement produced
type SettlementResult struct {
	Match       *Match
	WinningSide int
	Payouts     map[string]int64 // user ID -> credited amount
	Commissions map[string]int64 // manager user ID -> credited amount
	Title       TitleChange
	Outcome     *FightOutcome
	HoldSeconds int
}
