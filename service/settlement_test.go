package service

import (
	"context"
	"testing"

	"brawler/config"
	"brawler/events"
	"brawler/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	engine      *SettlementEngine
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	userRepo    *MockUserRepository
	fighterRepo *MockFighterRepository
	historyRepo *MockMatchHistoryRepository
	publisher   *MockEventPublisher
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	f := &settlementFixture{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		userRepo:    new(MockUserRepository),
		fighterRepo: new(MockFighterRepository),
		historyRepo: new(MockMatchHistoryRepository),
		publisher:   new(MockEventPublisher),
	}
	f.uow.SetRepositories(f.userRepo, f.fighterRepo, nil, f.historyRepo, nil, f.publisher)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.engine = NewSettlementEngine(f.factory, &config.Config{})
	return f
}

func newTestMatch(a, b *models.Fighter) *models.Match {
	two := decimal.NewFromInt(2)
	return &models.Match{
		ID:      "match-1",
		Type:    models.MatchType1v1,
		Sides:   [2][]*models.Fighter{{a}, {b}},
		SideIDs: [2]string{a.ID, b.ID},
		Odds:    [2]decimal.Decimal{two, two},
	}
}

func simpleOutcome(winnerID string) *models.FightOutcome {
	return &models.FightOutcome{
		WinnerID: winnerID,
		Summary:  "a decisive finish",
		BattleLog: []models.TurnEntry{
			{Actor: winnerID, Action: "strike", Damage: 12},
		},
	}
}

func TestSettlementEngine_PayoutsAndCommission(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	managerA := "manager-a"
	managerB := "manager-b"
	a := fighterWithRecord("a", 2, 1)
	a.ManagerID = &managerA
	b := fighterWithRecord("b", 1, 2)
	b.ManagerID = &managerB

	match := newTestMatch(a, b)
	ledger := NewLedger(match.Odds, 1000)
	_, err := ledger.PlaceBet("alice", 0, 600, noDebit)
	require.NoError(t, err)

	f.fighterRepo.On("IncrementRecord", ctx, "a", true).Return(nil)
	f.fighterRepo.On("IncrementRecord", ctx, "b", false).Return(nil)
	// Payout: floor(600 * 2.0) = 1200
	f.userRepo.On("AddBalance", ctx, "alice", int64(1200)).Return(int64(1200), nil)
	// Remaining pool 1600-1200=400: 10% to the winner's manager, 5% to the loser's
	f.userRepo.On("AddBalance", ctx, managerA, int64(40)).Return(int64(40), nil)
	f.userRepo.On("AddBalance", ctx, managerB, int64(20)).Return(int64(20), nil)
	f.historyRepo.On("Record", ctx, mock.MatchedBy(func(r *models.MatchRecord) bool {
		return r.WinnerID == "a" && r.WinnerName == "a" && !r.TitleBout && r.TitleExchanged == nil
	})).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.MatchResultEvent")).Return()

	result, err := f.engine.Settle(ctx, match, ledger, simpleOutcome("a"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.WinningSide)
	assert.Equal(t, int64(1200), result.Payouts["alice"])
	assert.Equal(t, int64(40), result.Commissions[managerA])
	assert.Equal(t, int64(20), result.Commissions[managerB])
	assert.Equal(t, models.TitleOutcomeNone, result.Title.Outcome)
	assert.Equal(t, 7+3*1+30, result.HoldSeconds)
	assert.True(t, match.IsSettled())

	f.userRepo.AssertExpectations(t)
	f.fighterRepo.AssertExpectations(t)
	f.historyRepo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestSettlementEngine_TitleTransferAndRematch(t *testing.T) {
	ctx := context.Background()

	champ := fighterWithRecord("champ", 5, 0)
	champ.Titles = []string{"Heavyweight"}
	challenger := fighterWithRecord("challenger", 3, 2)
	challenger.Titles = []string{}

	// The champion loses the belt
	f := newSettlementFixture(t)
	match := newTestMatch(challenger, champ)
	ledger := NewLedger(match.Odds, 500)

	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.fighterRepo.On("UpdateTitles", ctx, "champ", []string{}).Return(nil)
	f.fighterRepo.On("UpdateTitles", ctx, "challenger", []string{"Heavyweight"}).Return(nil)
	f.historyRepo.On("Record", ctx, mock.MatchedBy(func(r *models.MatchRecord) bool {
		return r.TitleBout && r.TitleExchanged != nil && *r.TitleExchanged == "Heavyweight"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return()

	result, err := f.engine.Settle(ctx, match, ledger, simpleOutcome("challenger"))
	require.NoError(t, err)
	assert.Equal(t, models.TitleOutcomeTransferred, result.Title.Outcome)
	assert.Equal(t, "Heavyweight", result.Title.Belt)
	assert.Equal(t, []string{"Heavyweight"}, challenger.Titles)
	assert.Empty(t, champ.Titles)

	// Title conservation: exactly one belt exists across both fighters
	assert.Equal(t, 1, len(champ.Titles)+len(challenger.Titles))

	// Rematch: the new holder loses it straight back
	f2 := newSettlementFixture(t)
	rematch := newTestMatch(champ, challenger)
	ledger2 := NewLedger(rematch.Odds, 500)

	f2.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f2.fighterRepo.On("UpdateTitles", ctx, "challenger", []string{}).Return(nil)
	f2.fighterRepo.On("UpdateTitles", ctx, "champ", []string{"Heavyweight"}).Return(nil)
	f2.historyRepo.On("Record", ctx, mock.Anything).Return(nil)
	f2.publisher.On("Publish", mock.Anything).Return()

	result, err = f2.engine.Settle(ctx, rematch, ledger2, simpleOutcome("champ"))
	require.NoError(t, err)
	assert.Equal(t, models.TitleOutcomeTransferred, result.Title.Outcome)
	assert.Equal(t, []string{"Heavyweight"}, champ.Titles)
	assert.Empty(t, challenger.Titles)
	assert.Equal(t, 1, len(champ.Titles)+len(challenger.Titles))
}

func TestSettlementEngine_TitleRetained(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	champ := fighterWithRecord("champ", 5, 0)
	champ.Titles = []string{"Heavyweight"}
	challenger := fighterWithRecord("challenger", 3, 2)

	match := newTestMatch(champ, challenger)
	ledger := NewLedger(match.Odds, 500)

	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.historyRepo.On("Record", ctx, mock.MatchedBy(func(r *models.MatchRecord) bool {
		return r.TitleBout && r.TitleExchanged == nil
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return()

	result, err := f.engine.Settle(ctx, match, ledger, simpleOutcome("champ"))
	require.NoError(t, err)
	assert.Equal(t, models.TitleOutcomeRetained, result.Title.Outcome)
	assert.Equal(t, []string{"Heavyweight"}, champ.Titles)
	f.fighterRepo.AssertNotCalled(t, "UpdateTitles", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementEngine_NoTitleMoveIn2v2(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	a1 := fighterWithRecord("a1", 1, 0)
	a1.Titles = []string{"Tag Team"}
	a2 := fighterWithRecord("a2", 1, 0)
	b1 := fighterWithRecord("b1", 0, 1)
	b2 := fighterWithRecord("b2", 0, 1)

	two := decimal.NewFromInt(2)
	match := &models.Match{
		ID:      "match-2",
		Type:    models.MatchType2v2,
		Sides:   [2][]*models.Fighter{{a1, a2}, {b1, b2}},
		SideIDs: [2]string{"team-a", "team-b"},
		Odds:    [2]decimal.Decimal{two, two},
	}
	ledger := NewLedger(match.Odds, 500)

	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.historyRepo.On("Record", ctx, mock.MatchedBy(func(r *models.MatchRecord) bool {
		// The second member of the winning side took the match; the
		// record must name them, not the side lead.
		return r.WinnerID == "b2" && r.WinnerName == "b2"
	})).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		result, ok := e.(events.MatchResultEvent)
		return ok && result.WinnerName == "b2"
	})).Return()

	result, err := f.engine.Settle(ctx, match, ledger, simpleOutcome("b2"))
	require.NoError(t, err)
	assert.Equal(t, models.TitleOutcomeNone, result.Title.Outcome)
	f.fighterRepo.AssertNotCalled(t, "UpdateTitles", mock.Anything, mock.Anything, mock.Anything)
	f.fighterRepo.AssertNumberOfCalls(t, "IncrementRecord", 4)
}

func TestSettlementEngine_ProfileDeltas(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	rookie := fighterWithRecord("rookie", 0, 0)
	rookie.Name = "???"
	rookie.HP = 0
	veteran := fighterWithRecord("veteran", 4, 2)
	veteran.HP = 50
	veteran.Popularity = 10

	match := newTestMatch(rookie, veteran)
	ledger := NewLedger(match.Odds, 500)

	outcome := simpleOutcome("veteran")
	outcome.NewStats = map[string]models.ProfileDelta{
		"rookie": {
			Name:            "Crayon Crusher",
			Description:     "Drawn in haste, feared at leisure",
			HP:              42,
			Agility:         11,
			Power:           9,
			PopularityDrift: 2,
		},
		"veteran": {
			// Combat stats must not move post-first-assignment; the
			// drift is clamped from 10 to the ordinary limit of 3
			HP:              99,
			PopularityDrift: 10,
		},
	}

	f.fighterRepo.On("UpdateProfile", ctx, rookie).Return(nil)
	f.fighterRepo.On("UpdateProfile", ctx, veteran).Return(nil)
	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.historyRepo.On("Record", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return()

	_, err := f.engine.Settle(ctx, match, ledger, outcome)
	require.NoError(t, err)

	assert.Equal(t, "Crayon Crusher", rookie.Name)
	assert.Equal(t, 42, rookie.HP)
	assert.Equal(t, 11, rookie.Agility)
	assert.Equal(t, 3, rookie.Popularity) // 1 + 2

	assert.Equal(t, 50, veteran.HP) // unchanged
	assert.Equal(t, 13, veteran.Popularity)
}

func TestSettlementEngine_HighVolatilityWidensDrift(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	a := fighterWithRecord("a", 1, 1)
	a.HP = 30
	a.Popularity = 20
	b := fighterWithRecord("b", 1, 1)
	b.HP = 30

	match := newTestMatch(a, b)
	ledger := NewLedger(match.Odds, 500)

	outcome := simpleOutcome("a")
	outcome.HighVolatility = true
	outcome.NewStats = map[string]models.ProfileDelta{
		"a": {PopularityDrift: -10},
	}

	f.fighterRepo.On("UpdateProfile", ctx, a).Return(nil)
	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.historyRepo.On("Record", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return()

	_, err := f.engine.Settle(ctx, match, ledger, outcome)
	require.NoError(t, err)
	assert.Equal(t, 14, a.Popularity) // 20 - 6
}

func TestSettlementEngine_AppliedExactlyOnce(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	a := fighterWithRecord("a", 0, 0)
	b := fighterWithRecord("b", 0, 0)
	match := newTestMatch(a, b)
	ledger := NewLedger(match.Odds, 500)

	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.historyRepo.On("Record", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return()

	outcome := simpleOutcome("a")
	_, err := f.engine.Settle(ctx, match, ledger, outcome)
	require.NoError(t, err)

	// Replaying the same outcome must not double-apply anything
	_, err = f.engine.Settle(ctx, match, ledger, outcome)
	require.Error(t, err)
	f.fighterRepo.AssertNumberOfCalls(t, "IncrementRecord", 2)
	f.historyRepo.AssertNumberOfCalls(t, "Record", 1)
}

func TestSettlementEngine_UnknownWinnerRejected(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	a := fighterWithRecord("a", 0, 0)
	b := fighterWithRecord("b", 0, 0)
	match := newTestMatch(a, b)
	ledger := NewLedger(match.Odds, 500)

	_, err := f.engine.Settle(ctx, match, ledger, simpleOutcome("stranger"))
	require.Error(t, err)
	assert.False(t, match.IsSettled())
	f.factory.AssertNotCalled(t, "Create")
}

func TestSettlementEngine_ResultEventCarriesPayouts(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	a := fighterWithRecord("a", 0, 0)
	b := fighterWithRecord("b", 0, 0)
	match := newTestMatch(a, b)
	ledger := NewLedger(match.Odds, 1000)
	_, err := ledger.PlaceBet("alice", 0, 100, noDebit)
	require.NoError(t, err)

	f.fighterRepo.On("IncrementRecord", ctx, mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("AddBalance", ctx, "alice", int64(200)).Return(int64(200), nil)
	f.historyRepo.On("Record", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		result, ok := e.(events.MatchResultEvent)
		return ok && result.WinnerID == "a" && result.Payouts["alice"] == 200
	})).Return()

	_, err = f.engine.Settle(ctx, match, ledger, simpleOutcome("a"))
	require.NoError(t, err)
	f.publisher.AssertExpectations(t)
}
