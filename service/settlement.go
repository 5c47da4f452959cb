package service

import (
	"context"
	"fmt"

	"brawler/config"
	"brawler/events"
	"brawler/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	winnerCommissionPct = 10
	loserCommissionPct  = 5

	// ordinaryDriftLimit bounds per-match popularity drift; high-volatility
	// events are allowed a wider swing.
	ordinaryDriftLimit       = 3
	highVolatilityDriftLimit = 6

	popularityMin = 1
	popularityMax = 100
)

type SettlementEngine struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewSettlementEngine creates a new settlement engine
func NewSettlementEngine(uowFactory UnitOfWorkFactory, cfg *config.Config) *SettlementEngine {
	return &SettlementEngine{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// Settle applies a fight outcome to the registry as a single transaction:
// profile deltas, win/loss records, title movement, bettor payouts,
// manager commission, and the immutable history row. Either every
// mutation lands or none does. A match instance is settled at most once;
// a repeat call is rejected without touching anything.
func (s *SettlementEngine) Settle(ctx context.Context, match *models.Match, ledger *Ledger, outcome *models.FightOutcome) (*models.SettlementResult, error) {
	if match.IsSettled() {
		return nil, fmt.Errorf("match %s already settled", match.ID)
	}

	winningSide := match.WinnerSide(outcome.WinnerID)
	if winningSide < 0 {
		return nil, fmt.Errorf("winner %s is not a participant of match %s", outcome.WinnerID, match.ID)
	}
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.applyProfileDeltas(ctx, uow, match, outcome); err != nil {
		return nil, err
	}

	// Win/loss records
	for side, fighters := range match.Sides {
		for _, f := range fighters {
			won := side == winningSide
			if err := uow.FighterRepository().IncrementRecord(ctx, f.ID, won); err != nil {
				return nil, fmt.Errorf("failed to update record for %s: %w", f.ID, err)
			}
			if won {
				f.Wins++
			} else {
				f.Losses++
			}
		}
	}

	title, err := s.transferTitle(ctx, uow, match, winningSide)
	if err != nil {
		return nil, err
	}

	payouts, paidOut, err := s.payWinners(ctx, uow, match, ledger, winningSide)
	if err != nil {
		return nil, err
	}

	commissions, err := s.payCommission(ctx, uow, match, ledger.Pool()-paidOut, winningSide)
	if err != nil {
		return nil, err
	}

	// The resolver names the individual fighter, not the side; in a team
	// card the winner may be any member of the winning side.
	winner := match.ParticipantByID(outcome.WinnerID)
	record := &models.MatchRecord{
		MatchType:  match.Type,
		Rosters:    rosterEntries(match),
		WinnerID:   outcome.WinnerID,
		WinnerName: winner.Name,
		Summary:    outcome.Summary,
		TitleBout:  title.Outcome != models.TitleOutcomeNone,
	}
	if title.Outcome == models.TitleOutcomeTransferred {
		record.TitleExchanged = &title.Belt
	}
	if err := uow.MatchHistoryRepository().Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record match history: %w", err)
	}

	result := &models.SettlementResult{
		Match:       match,
		WinningSide: winningSide,
		Payouts:     payouts,
		Commissions: commissions,
		Title:       title,
		Outcome:     outcome,
		HoldSeconds: 7 + 3*len(outcome.BattleLog) + 30,
	}

	uow.EventBus().Publish(events.MatchResultEvent{
		MatchID:      match.ID,
		Sides:        sideViews(match),
		Log:          outcome.BattleLog,
		WinnerID:     outcome.WinnerID,
		WinnerName:   winner.Name,
		Summary:      outcome.Summary,
		TitleOutcome: string(title.Outcome),
		Belt:         title.Belt,
		Payouts:      payouts,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	match.MarkSettled()

	log.WithFields(log.Fields{
		"matchID": match.ID,
		"winner":  winner.Name,
		"payouts": len(payouts),
		"title":   title.Outcome,
	}).Info("Match settled")

	return result, nil
}

// applyProfileDeltas folds the resolver's optional per-fighter fields into
// the registry. Combat stats are assigned exactly once, on a fighter's
// first match; bio fields backfill only when still at their placeholder
// values; popularity drift is clamped.
func (s *SettlementEngine) applyProfileDeltas(ctx context.Context, uow UnitOfWork, match *models.Match, outcome *models.FightOutcome) error {
	driftLimit := ordinaryDriftLimit
	if outcome.HighVolatility {
		driftLimit = highVolatilityDriftLimit
	}

	for _, f := range match.Participants() {
		delta, ok := outcome.NewStats[f.ID]
		if !ok {
			continue
		}

		if !f.HasProfile() && delta.HP > 0 {
			f.HP = delta.HP
			f.Agility = delta.Agility
			f.Power = delta.Power
			if delta.Name != "" {
				f.Name = delta.Name
			}
			if delta.Description != "" {
				f.Description = delta.Description
			}
		}
		if delta.Alignment != "" {
			f.Alignment = delta.Alignment
		}

		drift := delta.PopularityDrift
		if drift > driftLimit {
			drift = driftLimit
		}
		if drift < -driftLimit {
			drift = -driftLimit
		}
		f.Popularity += drift
		if f.Popularity < popularityMin {
			f.Popularity = popularityMin
		}
		if f.Popularity > popularityMax {
			f.Popularity = popularityMax
		}

		if err := uow.FighterRepository().UpdateProfile(ctx, f); err != nil {
			return fmt.Errorf("failed to apply profile delta for %s: %w", f.ID, err)
		}
	}
	return nil
}

// transferTitle moves a belt for single-fighter matches. A losing champion
// forfeits the first belt on their list to the winner; that is the only
// rule that ever moves a title.
func (s *SettlementEngine) transferTitle(ctx context.Context, uow UnitOfWork, match *models.Match, winningSide int) (models.TitleChange, error) {
	if match.Type != models.MatchType1v1 {
		return models.TitleChange{Outcome: models.TitleOutcomeNone}, nil
	}

	winner := match.Sides[winningSide][0]
	loser := match.Sides[1-winningSide][0]

	if !loser.HoldsTitle() {
		if winner.HoldsTitle() {
			return models.TitleChange{Outcome: models.TitleOutcomeRetained, Belt: winner.Titles[0]}, nil
		}
		return models.TitleChange{Outcome: models.TitleOutcomeNone}, nil
	}

	belt := loser.Titles[0]
	loser.Titles = loser.Titles[1:]
	winner.Titles = append(winner.Titles, belt)

	if err := uow.FighterRepository().UpdateTitles(ctx, loser.ID, loser.Titles); err != nil {
		return models.TitleChange{}, fmt.Errorf("failed to strip title from %s: %w", loser.ID, err)
	}
	if err := uow.FighterRepository().UpdateTitles(ctx, winner.ID, winner.Titles); err != nil {
		return models.TitleChange{}, fmt.Errorf("failed to award title to %s: %w", winner.ID, err)
	}

	return models.TitleChange{Outcome: models.TitleOutcomeTransferred, Belt: belt}, nil
}

// payWinners credits floor(amount * odds) to every winning bettor.
// Returns the payout ledger and the total debited from the pool.
func (s *SettlementEngine) payWinners(ctx context.Context, uow UnitOfWork, match *models.Match, ledger *Ledger, winningSide int) (map[string]int64, int64, error) {
	payouts := make(map[string]int64)
	var total int64

	odds := match.Odds[winningSide]
	for _, bet := range ledger.Bets() {
		if bet.Side != winningSide {
			continue
		}
		payout := decimal.NewFromInt(bet.Amount).Mul(odds).Floor().IntPart()
		if payout <= 0 {
			continue
		}
		if _, err := uow.UserRepository().AddBalance(ctx, bet.UserID, payout); err != nil {
			return nil, 0, fmt.Errorf("failed to pay out %s: %w", bet.UserID, err)
		}
		payouts[bet.UserID] = payout
		total += payout
	}
	return payouts, total, nil
}

// payCommission splits the post-payout pool remainder between the two
// sides' managers: 10% across the winning side's fighters, 5% across the
// losing side's. A fighter with no manager forfeits its share.
func (s *SettlementEngine) payCommission(ctx context.Context, uow UnitOfWork, match *models.Match, remaining int64, winningSide int) (map[string]int64, error) {
	commissions := make(map[string]int64)
	if remaining <= 0 {
		return commissions, nil
	}

	for side, fighters := range match.Sides {
		pct := int64(loserCommissionPct)
		if side == winningSide {
			pct = winnerCommissionPct
		}
		sideCut := remaining * pct / 100
		if sideCut <= 0 || len(fighters) == 0 {
			continue
		}
		share := sideCut / int64(len(fighters))
		if share <= 0 {
			continue
		}
		for _, f := range fighters {
			if f.ManagerID == nil {
				continue
			}
			if _, err := uow.UserRepository().AddBalance(ctx, *f.ManagerID, share); err != nil {
				return nil, fmt.Errorf("failed to pay commission to %s: %w", *f.ManagerID, err)
			}
			commissions[*f.ManagerID] += share
		}
	}
	return commissions, nil
}

// rosterEntries converts a match's sides into the slim history form
func rosterEntries(match *models.Match) [][]models.RosterEntry {
	rosters := make([][]models.RosterEntry, len(match.Sides))
	for i, side := range match.Sides {
		rosters[i] = make([]models.RosterEntry, 0, len(side))
		for _, f := range side {
			rosters[i] = append(rosters[i], models.RosterEntry{ID: f.ID, Name: f.Name})
		}
	}
	return rosters
}

// sideViews builds the broadcast form of both sides
func sideViews(match *models.Match) [2]events.SideView {
	var views [2]events.SideView
	for i := range match.Sides {
		odds, _ := match.Odds[i].Float64()
		views[i] = events.SideView{
			SideID:   match.SideIDs[i],
			Fighters: match.Sides[i],
			Odds:     odds,
		}
	}
	return views
}
