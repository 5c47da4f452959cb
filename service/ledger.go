package service

import (
	"sync"

	"brawler/models"

	"github.com/shopspring/decimal"
)

// maxWagerFloor keeps the advisory max-wager divisor away from zero when
// a side's odds sit at the 1.10 floor.
var maxWagerFloor = decimal.RequireFromString("0.1")

// Ledger is the in-memory pari-mutuel book for a single match. One ledger
// exists per match instance; a fresh one is built each time a card is
// booked. All mutations are serialized under a single mutex, which is
// never held across a database or network call other than the balance
// debit for the bet being accepted.
type Ledger struct {
	mu sync.Mutex

	odds       [2]decimal.Decimal
	pool       int64
	sideTotals [2]int64
	bets       map[string]*models.Bet
	frozen     bool
}

// NewLedger creates a ledger seeded with the house pool contribution
func NewLedger(odds [2]decimal.Decimal, seed int64) *Ledger {
	return &Ledger{
		odds: odds,
		pool: seed,
		bets: make(map[string]*models.Bet),
	}
}

// PlaceBet validates and records a wager on one side. The debit callback
// performs the durable balance deduction and runs while the ledger lock
// is held, so a validated bet cannot be invalidated by a concurrent one
// between validation and debit. If debit fails the ledger is unchanged.
//
// Returns the user's total wagered amount on this match after merging.
func (l *Ledger) PlaceBet(userID string, side int, amount int64, debit func() error) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return 0, models.NewValidationError("betting is closed for this match")
	}
	if side != 0 && side != 1 {
		return 0, models.NewValidationError("unknown side")
	}
	if amount <= 0 {
		return 0, models.NewValidationError("bet amount must be positive")
	}

	existing := l.bets[userID]
	if existing != nil && existing.Side != side {
		return 0, models.NewValidationError("you already have a bet on the other side")
	}

	// Ledger-local validation runs before the durable debit: a bet that
	// both overcommits the pool and overdraws the balance is reported as
	// a liability rejection, and no balance is touched.
	//
	// Worst-case payout for this side, including the new contribution,
	// must stay within the pool including the new contribution.
	newSideTotal := l.sideTotals[side] + amount
	liability := decimal.NewFromInt(newSideTotal).Mul(l.odds[side])
	if liability.GreaterThan(decimal.NewFromInt(l.pool + amount)) {
		return 0, &models.LiabilityError{MaxAdditional: l.maxAdditional(side)}
	}

	if err := debit(); err != nil {
		return 0, err
	}

	if existing != nil {
		existing.Amount += amount
	} else {
		existing = &models.Bet{UserID: userID, Side: side, Amount: amount}
		l.bets[userID] = existing
	}
	l.sideTotals[side] = newSideTotal
	l.pool += amount

	return existing.Amount, nil
}

// maxAdditional computes the advisory maximum extra wager on a side that
// would still satisfy the liability constraint. Callers hold l.mu.
func (l *Ledger) maxAdditional(side int) int64 {
	current := decimal.NewFromInt(l.sideTotals[side]).Mul(l.odds[side])
	headroom := decimal.NewFromInt(l.pool).Sub(current)

	divisor := l.odds[side].Sub(decimal.NewFromInt(1))
	if divisor.LessThan(maxWagerFloor) {
		divisor = maxWagerFloor
	}

	limit := headroom.Div(divisor).Floor().IntPart()
	if limit < 0 {
		return 0
	}
	return limit
}

// Freeze closes the book; subsequent PlaceBet calls are rejected
func (l *Ledger) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// Pool returns the current pool total
func (l *Ledger) Pool() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool
}

// SideTotal returns the sum of bets placed on one side
func (l *Ledger) SideTotal(side int) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sideTotals[side]
}

// Bets returns a snapshot of every bet on the match
func (l *Ledger) Bets() []models.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Bet, 0, len(l.bets))
	for _, b := range l.bets {
		out = append(out, *b)
	}
	return out
}

// UserBet returns the user's current bet, or nil
func (l *Ledger) UserBet(userID string) *models.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.bets[userID]; ok {
		copied := *b
		return &copied
	}
	return nil
}
