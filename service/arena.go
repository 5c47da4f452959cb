package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"brawler/config"
	"brawler/events"
	"brawler/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CardSnapshot is the public view of the arena for GET /card
type CardSnapshot struct {
	Status    string             `json:"status"` // "waiting" or "scheduled"
	MatchID   string             `json:"match_id,omitempty"`
	MatchType models.MatchType   `json:"match_type,omitempty"`
	Sides     [2]events.SideView `json:"sides,omitempty"`
	Pool      int64              `json:"pool"`
	Countdown int                `json:"countdown"`
	Frozen    bool               `json:"frozen"`
}

// Arena owns the match lifecycle: candidate selection, the betting
// window, the resolver call, and settlement display. Run is the only
// writer of phase transitions; bet placement and the admin toggles are
// called concurrently from request handlers and synchronize on a.mu.
type Arena struct {
	uowFactory UnitOfWorkFactory
	resolver   CombatResolver
	settler    Settler
	moderation ModerationPipeline
	bus        *events.Bus
	config     *config.Config

	mu        sync.Mutex
	phase     models.MatchPhase
	match     *models.Match
	ledger    *Ledger
	countdown int
	frozen    bool
}

// NewArena creates the arena service
func NewArena(uowFactory UnitOfWorkFactory, resolver CombatResolver, settler Settler, moderation ModerationPipeline, bus *events.Bus, cfg *config.Config) *Arena {
	return &Arena{
		uowFactory: uowFactory,
		resolver:   resolver,
		settler:    settler,
		moderation: moderation,
		bus:        bus,
		config:     cfg,
		phase:      models.MatchPhaseIdle,
	}
}

// Run drives the arena on a one-second tick until the context is
// cancelled. Per-cycle failures are logged and the loop proceeds; no
// error in a cycle crashes it.
func (a *Arena) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	log.Info("Arena event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Arena event loop stopped")
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Arena) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Arena tick panicked")
			// A panic while the match is LIVE would otherwise leave a
			// phase no tick handles; abandon so the next tick reschedules.
			a.mu.Lock()
			wedged := a.phase == models.MatchPhaseLive
			a.mu.Unlock()
			if wedged {
				a.abandon()
			}
		}
	}()

	// Moderation runs every tick regardless of match phase
	if err := a.moderation.Flush(ctx); err != nil {
		log.WithError(err).Warn("Moderation flush failed; will retry next tick")
	}

	a.mu.Lock()
	phase := a.phase
	a.mu.Unlock()

	switch phase {
	case models.MatchPhaseIdle, models.MatchPhaseScheduling:
		if err := a.schedule(ctx); err != nil {
			a.setPhase(models.MatchPhaseIdle)
			if !errors.Is(err, errNotEnoughFighters) {
				log.WithError(err).Error("Failed to schedule a match")
			}
		}

	case models.MatchPhaseOpenForBets:
		if done := a.tickCountdown(); done {
			a.runMatch(ctx)
		}

	case models.MatchPhaseSettling:
		if done := a.tickCountdown(); done {
			a.mu.Lock()
			a.match = nil
			a.ledger = nil
			a.phase = models.MatchPhaseScheduling
			a.mu.Unlock()
		}
	}
}

// tickCountdown decrements the countdown unless frozen, broadcasts the
// timer, and reports whether the countdown has run out.
func (a *Arena) tickCountdown() bool {
	a.mu.Lock()
	if !a.frozen {
		a.countdown--
	}
	countdown := a.countdown
	frozen := a.frozen
	var names []string
	if a.match != nil {
		sideNames := a.match.SideNames()
		names = sideNames[:]
	}
	a.mu.Unlock()

	a.bus.Emit(context.Background(), events.TimerUpdateEvent{
		Countdown:      countdown,
		NextMatchNames: names,
		Frozen:         frozen,
	})
	return countdown <= 0
}

var errNotEnoughFighters = errors.New("not enough schedulable fighters")

// schedule books the next card: fresh-fighter priority for 1v1, with an
// occasional 2v2 team card. On success the market opens with a fresh
// ledger and a full countdown.
func (a *Arena) schedule(ctx context.Context) error {
	match, err := a.selectCandidates(ctx)
	if err != nil {
		return err
	}

	match.ID = uuid.New().String()
	match.Odds = ComputeOdds(match.Sides[0], match.Sides[1])
	seed := PoolSeed(match.Participants())
	ledger := NewLedger(match.Odds, seed)

	a.mu.Lock()
	a.match = match
	a.ledger = ledger
	a.countdown = a.config.BetWindowSeconds
	a.phase = models.MatchPhaseOpenForBets
	countdown := a.countdown
	a.mu.Unlock()

	names := match.SideNames()
	log.WithFields(log.Fields{
		"matchID": match.ID,
		"type":    match.Type,
		"sideA":   names[0],
		"sideB":   names[1],
		"pool":    seed,
	}).Info("Match scheduled")

	a.bus.Emit(context.Background(), events.MatchScheduledEvent{
		MatchID:   match.ID,
		MatchType: string(match.Type),
		Sides:     sideViews(match),
		Pool:      seed,
		Countdown: countdown,
	})
	return nil
}

// selectCandidates picks the two sides for the next card
func (a *Arena) selectCandidates(ctx context.Context) (*models.Match, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if rand.Float64() < a.config.TeamMatchChance {
		if match, err := a.selectTeams(ctx, uow); err != nil {
			return nil, err
		} else if match != nil {
			return match, nil
		}
		// Not enough teams; fall through to a 1v1 card
	}

	fresh, err := uow.FighterRepository().GetFresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get fresh fighters: %w", err)
	}

	var pair []*models.Fighter
	switch {
	case len(fresh) >= 2:
		// Two debuts: pick two fresh fighters uniformly at random
		i := rand.Intn(len(fresh))
		j := rand.Intn(len(fresh) - 1)
		if j >= i {
			j++
		}
		pair = []*models.Fighter{fresh[i], fresh[j]}

	case len(fresh) == 1:
		// One debut paired with a random veteran
		veterans, err := uow.FighterRepository().GetRandomSchedulable(ctx, 1, fresh[0].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get a veteran opponent: %w", err)
		}
		if len(veterans) == 0 {
			return nil, errNotEnoughFighters
		}
		pair = []*models.Fighter{fresh[0], veterans[0]}

	default:
		pair, err = uow.FighterRepository().GetRandomSchedulable(ctx, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to get fighters: %w", err)
		}
		if len(pair) < 2 {
			return nil, errNotEnoughFighters
		}
	}

	return &models.Match{
		Type:    models.MatchType1v1,
		Sides:   [2][]*models.Fighter{{pair[0]}, {pair[1]}},
		SideIDs: [2]string{pair[0].ID, pair[1].ID},
	}, nil
}

// selectTeams tries to book a 2v2 card; returns nil when fewer than two
// populated teams exist.
func (a *Arena) selectTeams(ctx context.Context, uow UnitOfWork) (*models.Match, error) {
	teams, err := uow.TeamRepository().GetRandomPair(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	if len(teams) < 2 {
		return nil, nil
	}

	var sides [2][]*models.Fighter
	for i, team := range teams {
		members, err := uow.TeamRepository().GetMembers(ctx, team)
		if err != nil {
			return nil, fmt.Errorf("failed to get members of team %s: %w", team.ID, err)
		}
		if len(members) == 0 {
			return nil, nil
		}
		sides[i] = members
	}

	return &models.Match{
		Type:    models.MatchType2v2,
		Sides:   sides,
		SideIDs: [2]string{teams[0].ID, teams[1].ID},
	}, nil
}

// runMatch closes the book, invokes the resolver, and settles. A failed
// or malformed resolver response abandons the match with no persisted
// mutation and the scheduler books a new card next tick.
func (a *Arena) runMatch(ctx context.Context) {
	a.mu.Lock()
	a.phase = models.MatchPhaseLive
	match := a.match
	ledger := a.ledger
	a.mu.Unlock()

	ledger.Freeze()

	// Influence scalars, both uniform 1-100
	winnerBias := rand.Intn(100) + 1
	volatility := rand.Intn(100) + 1

	// The resolver can block for seconds; no lock is held across the call
	outcome, err := a.resolver.RunMatch(ctx, match, winnerBias, volatility)
	if err != nil {
		log.WithError(err).WithField("matchID", match.ID).Warn("Resolver failed; abandoning match")
		a.abandon()
		return
	}
	outcome.HighVolatility = volatility > a.config.HighVolatilityAbove

	result, err := a.settler.Settle(ctx, match, ledger, outcome)
	if err != nil {
		log.WithError(err).WithField("matchID", match.ID).Error("Settlement failed; abandoning match")
		a.abandon()
		return
	}

	// Hold the result on screen long enough to read the log
	a.mu.Lock()
	a.phase = models.MatchPhaseSettling
	a.countdown = result.HoldSeconds
	a.mu.Unlock()
}

func (a *Arena) abandon() {
	a.mu.Lock()
	a.match = nil
	a.ledger = nil
	a.phase = models.MatchPhaseScheduling
	a.mu.Unlock()
}

func (a *Arena) setPhase(phase models.MatchPhase) {
	a.mu.Lock()
	a.phase = phase
	a.mu.Unlock()
}

// PlaceBet places a wager on the current match's side for a user. The
// durable balance debit happens inside the ledger's acceptance window so
// a validated bet cannot be starved by a concurrent one. Returns the
// user's new balance and their total wagered on this match.
func (a *Arena) PlaceBet(ctx context.Context, userID, sideID string, amount int64) (int64, int64, error) {
	a.mu.Lock()
	phase := a.phase
	match := a.match
	ledger := a.ledger
	a.mu.Unlock()

	if phase != models.MatchPhaseOpenForBets || match == nil {
		return 0, 0, models.NewValidationError("no match is open for betting")
	}
	side := match.SideFor(sideID)
	if side < 0 {
		return 0, 0, models.NewValidationError("unknown side")
	}

	var newBalance int64
	totalWagered, err := ledger.PlaceBet(userID, side, amount, func() error {
		return a.debit(ctx, userID, amount, &newBalance)
	})
	if err != nil {
		return 0, 0, err
	}

	a.bus.Emit(context.Background(), events.PoolUpdateEvent{Pool: ledger.Pool()})
	return newBalance, totalWagered, nil
}

// debit durably deducts the stake from the user's balance
func (a *Arena) debit(ctx context.Context, userID string, amount int64, newBalance *int64) error {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return models.NewValidationError("account not found")
	}

	balance, err := uow.UserRepository().DeductBalance(ctx, userID, amount)
	if errors.Is(err, models.ErrInsufficientFunds) {
		return models.NewValidationError("insufficient funds")
	}
	if err != nil {
		return fmt.Errorf("failed to debit stake: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit debit: %w", err)
	}

	*newBalance = balance
	return nil
}

// Card returns the public snapshot of the arena
func (a *Arena) Card() CardSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.match == nil || (a.phase != models.MatchPhaseOpenForBets && a.phase != models.MatchPhaseLive && a.phase != models.MatchPhaseSettling) {
		return CardSnapshot{Status: "waiting", Frozen: a.frozen}
	}

	return CardSnapshot{
		Status:    "scheduled",
		MatchID:   a.match.ID,
		MatchType: a.match.Type,
		Sides:     sideViews(a.match),
		Pool:      a.ledger.Pool(),
		Countdown: a.countdown,
		Frozen:    a.frozen,
	}
}

// Phase returns the current scheduler phase
func (a *Arena) Phase() models.MatchPhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// SetFrozen suspends or resumes the countdown. Bet placement and
// moderation are unaffected.
func (a *Arena) SetFrozen(frozen bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = frozen
}

// Skip clamps the countdown so the current betting window ends within a
// few seconds. It never bypasses the next card's ledger reset.
func (a *Arena) Skip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase == models.MatchPhaseOpenForBets && a.countdown > a.config.SkipCountdownTo {
		a.countdown = a.config.SkipCountdownTo
	}
}
