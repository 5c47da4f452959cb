package service

import (
	"context"
	"time"

	"brawler/events"
	"brawler/models"
)

// UserRepository defines the interface for spectator account data access
type UserRepository interface {
	// GetByID retrieves a user by their 16-digit account ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// AddBalance credits a user's balance atomically and returns the new balance
	AddBalance(ctx context.Context, id string, amount int64) (int64, error)

	// DeductBalance debits a user's balance atomically, failing with
	// models.ErrInsufficientFunds when the balance cannot cover the amount
	DeductBalance(ctx context.Context, id string, amount int64) (int64, error)

	// SetLastSubmission stamps the user's submission cooldown
	SetLastSubmission(ctx context.Context, id string, at time.Time) error
}

// FighterRepository defines the interface for fighter registry access
type FighterRepository interface {
	// GetByID retrieves a fighter by ID
	GetByID(ctx context.Context, id string) (*models.Fighter, error)

	// Create inserts a new fighter
	Create(ctx context.Context, fighter *models.Fighter) error

	// GetFresh returns schedulable fighters with zero total fights
	GetFresh(ctx context.Context) ([]*models.Fighter, error)

	// GetRandomSchedulable returns up to limit schedulable fighters drawn
	// uniformly at random, excluding the given IDs
	GetRandomSchedulable(ctx context.Context, limit int, excludeIDs ...string) ([]*models.Fighter, error)

	// GetPending returns fighters awaiting moderation, oldest first
	GetPending(ctx context.Context) ([]*models.Fighter, error)

	// SetApproved flips a fighter's approval flag
	SetApproved(ctx context.Context, id string, approved bool) error

	// Delete removes a fighter from the roster
	Delete(ctx context.Context, id string) error

	// UpdateProfile persists a fighter's mutable profile fields (name,
	// bio, alignment, popularity, combat stats)
	UpdateProfile(ctx context.Context, fighter *models.Fighter) error

	// IncrementRecord bumps wins or losses by one
	IncrementRecord(ctx context.Context, id string, won bool) error

	// UpdateTitles replaces a fighter's belt list
	UpdateTitles(ctx context.Context, id string, titles []string) error

	// GetRoster returns approved fighters ordered by win/loss ratio then wins
	GetRoster(ctx context.Context, limit, offset int) ([]*models.Fighter, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// GetByID retrieves a team by ID
	GetByID(ctx context.Context, id string) (*models.Team, error)

	// GetRandomPair returns two distinct random teams that have members,
	// or nil when fewer than two exist
	GetRandomPair(ctx context.Context) ([]*models.Team, error)

	// GetMembers returns a team's fighters in roster order
	GetMembers(ctx context.Context, team *models.Team) ([]*models.Fighter, error)
}

// MatchHistoryRepository defines the interface for the immutable match log
type MatchHistoryRepository interface {
	// Record appends a match history entry
	Record(ctx context.Context, record *models.MatchRecord) error

	// GetRecent returns history entries, newest first
	GetRecent(ctx context.Context, limit, offset int) ([]*models.MatchRecord, error)
}

// RejectionRepository defines the interface for the append-only rejection ledger
type RejectionRepository interface {
	// Record appends a rejection entry
	Record(ctx context.Context, rejection *models.Rejection) error

	// GetByFighterID retrieves a rejection entry, nil when absent
	GetByFighterID(ctx context.Context, fighterID string) (*models.Rejection, error)
}

// EventPublisher publishes events scoped to a transaction
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork represents a database transaction with access to all repositories
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	FighterRepository() FighterRepository
	TeamRepository() TeamRepository
	MatchHistoryRepository() MatchHistoryRepository
	RejectionRepository() RejectionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// SubmissionService accepts new fighter submissions into the approval queue
type SubmissionService interface {
	// SubmitFighter validates funds/cooldown, debits the submission fee,
	// and inserts an unapproved fighter. Returns the fighter and the
	// submitter's new balance.
	SubmitFighter(ctx context.Context, userID, name, imageFile string) (*models.Fighter, int64, error)
}

// ModerationPipeline flushes pending submissions through the moderation service
type ModerationPipeline interface {
	Flush(ctx context.Context) error
}

// RosterService serves the public roster and match history pages
type RosterService interface {
	Roster(ctx context.Context, page int) ([]*models.Fighter, error)
	History(ctx context.Context, page int) ([]*models.MatchRecord, error)
}

// Settler applies a fight outcome as one atomic settlement
type Settler interface {
	Settle(ctx context.Context, match *models.Match, ledger *Ledger, outcome *models.FightOutcome) (*models.SettlementResult, error)
}

// CombatResolver is the external narrative-combat collaborator. It is
// untrusted: implementations retry transport errors a bounded number of
// times and report malformed payloads as permanent errors.
type CombatResolver interface {
	RunMatch(ctx context.Context, match *models.Match, winnerBias, volatility int) (*models.FightOutcome, error)
}

// Moderator is the external submission-screening collaborator
type Moderator interface {
	Moderate(ctx context.Context, batch []*models.Fighter) (map[string]models.ModerationDecision, error)
}
