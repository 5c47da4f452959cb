package service

import (
	"context"
	"time"

	"brawler/events"
	"brawler/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id string, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id string, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) SetLastSubmission(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockFighterRepository is a mock implementation of FighterRepository
type MockFighterRepository struct {
	mock.Mock
}

func (m *MockFighterRepository) GetByID(ctx context.Context, id string) (*models.Fighter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fighter), args.Error(1)
}

func (m *MockFighterRepository) Create(ctx context.Context, fighter *models.Fighter) error {
	args := m.Called(ctx, fighter)
	return args.Error(0)
}

func (m *MockFighterRepository) GetFresh(ctx context.Context) ([]*models.Fighter, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fighter), args.Error(1)
}

func (m *MockFighterRepository) GetRandomSchedulable(ctx context.Context, limit int, excludeIDs ...string) ([]*models.Fighter, error) {
	callArgs := make([]interface{}, 0, len(excludeIDs)+2)
	callArgs = append(callArgs, ctx, limit)
	for _, id := range excludeIDs {
		callArgs = append(callArgs, id)
	}
	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fighter), args.Error(1)
}

func (m *MockFighterRepository) GetPending(ctx context.Context) ([]*models.Fighter, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fighter), args.Error(1)
}

func (m *MockFighterRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	args := m.Called(ctx, id, approved)
	return args.Error(0)
}

func (m *MockFighterRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFighterRepository) UpdateProfile(ctx context.Context, fighter *models.Fighter) error {
	args := m.Called(ctx, fighter)
	return args.Error(0)
}

func (m *MockFighterRepository) IncrementRecord(ctx context.Context, id string, won bool) error {
	args := m.Called(ctx, id, won)
	return args.Error(0)
}

func (m *MockFighterRepository) UpdateTitles(ctx context.Context, id string, titles []string) error {
	args := m.Called(ctx, id, titles)
	return args.Error(0)
}

func (m *MockFighterRepository) GetRoster(ctx context.Context, limit, offset int) ([]*models.Fighter, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fighter), args.Error(1)
}

// MockTeamRepository is a mock implementation of TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamRepository) GetRandomPair(ctx context.Context) ([]*models.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Team), args.Error(1)
}

func (m *MockTeamRepository) GetMembers(ctx context.Context, team *models.Team) ([]*models.Fighter, error) {
	args := m.Called(ctx, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fighter), args.Error(1)
}

// MockMatchHistoryRepository is a mock implementation of MatchHistoryRepository
type MockMatchHistoryRepository struct {
	mock.Mock
}

func (m *MockMatchHistoryRepository) Record(ctx context.Context, record *models.MatchRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMatchHistoryRepository) GetRecent(ctx context.Context, limit, offset int) ([]*models.MatchRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MatchRecord), args.Error(1)
}

// MockRejectionRepository is a mock implementation of RejectionRepository
type MockRejectionRepository struct {
	mock.Mock
}

func (m *MockRejectionRepository) Record(ctx context.Context, rejection *models.Rejection) error {
	args := m.Called(ctx, rejection)
	return args.Error(0)
}

func (m *MockRejectionRepository) GetByFighterID(ctx context.Context, fighterID string) (*models.Rejection, error) {
	args := m.Called(ctx, fighterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rejection), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; Begin/Commit/Rollback go through the
// usual expectation machinery.
type MockUnitOfWork struct {
	mock.Mock

	userRepo      UserRepository
	fighterRepo   FighterRepository
	teamRepo      TeamRepository
	historyRepo   MatchHistoryRepository
	rejectionRepo RejectionRepository
	publisher     EventPublisher
}

// SetRepositories wires the repository mocks this unit of work hands out.
// A nil publisher defaults to a publisher that swallows events.
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	fighterRepo FighterRepository,
	teamRepo TeamRepository,
	historyRepo MatchHistoryRepository,
	rejectionRepo RejectionRepository,
	publisher EventPublisher,
) {
	m.userRepo = userRepo
	m.fighterRepo = fighterRepo
	m.teamRepo = teamRepo
	m.historyRepo = historyRepo
	m.rejectionRepo = rejectionRepo
	if publisher == nil {
		publisher = nopPublisher{}
	}
	m.publisher = publisher
}

type nopPublisher struct{}

func (nopPublisher) Publish(event events.Event) {}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) FighterRepository() FighterRepository {
	return m.fighterRepo
}

func (m *MockUnitOfWork) TeamRepository() TeamRepository {
	return m.teamRepo
}

func (m *MockUnitOfWork) MatchHistoryRepository() MatchHistoryRepository {
	return m.historyRepo
}

func (m *MockUnitOfWork) RejectionRepository() RejectionRepository {
	return m.rejectionRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockCombatResolver is a mock implementation of CombatResolver
type MockCombatResolver struct {
	mock.Mock
}

func (m *MockCombatResolver) RunMatch(ctx context.Context, match *models.Match, winnerBias, volatility int) (*models.FightOutcome, error) {
	args := m.Called(ctx, match, winnerBias, volatility)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FightOutcome), args.Error(1)
}

// MockModerator is a mock implementation of Moderator
type MockModerator struct {
	mock.Mock
}

func (m *MockModerator) Moderate(ctx context.Context, batch []*models.Fighter) (map[string]models.ModerationDecision, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.ModerationDecision), args.Error(1)
}

// MockSettler is a mock implementation of Settler
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, match *models.Match, ledger *Ledger, outcome *models.FightOutcome) (*models.SettlementResult, error) {
	args := m.Called(ctx, match, ledger, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}
