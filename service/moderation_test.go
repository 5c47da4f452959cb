package service

import (
	"context"
	"errors"
	"testing"

	"brawler/config"
	"brawler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	pipeline      ModerationPipeline
	factory       *MockUnitOfWorkFactory
	uow           *MockUnitOfWork
	fighterRepo   *MockFighterRepository
	rejectionRepo *MockRejectionRepository
	publisher     *MockEventPublisher
	moderator     *MockModerator
}

func newModerationFixture(t *testing.T, batchMin int) *moderationFixture {
	f := &moderationFixture{
		factory:       new(MockUnitOfWorkFactory),
		uow:           new(MockUnitOfWork),
		fighterRepo:   new(MockFighterRepository),
		rejectionRepo: new(MockRejectionRepository),
		publisher:     new(MockEventPublisher),
		moderator:     new(MockModerator),
	}
	f.uow.SetRepositories(nil, f.fighterRepo, nil, nil, f.rejectionRepo, f.publisher)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.pipeline = NewModerationPipeline(f.factory, f.moderator, &config.Config{ModerationBatchMin: batchMin})
	return f
}

func pendingFighter(id string) *models.Fighter {
	return &models.Fighter{
		ID:        id,
		Name:      id,
		ImageFile: id + ".png",
		Status:    models.FighterStatusActive,
		Approved:  false,
	}
}

func TestModerationPipeline_BelowThresholdDoesNothing(t *testing.T) {
	f := newModerationFixture(t, 3)
	ctx := context.Background()

	f.fighterRepo.On("GetPending", ctx).Return([]*models.Fighter{pendingFighter("p1"), pendingFighter("p2")}, nil)

	require.NoError(t, f.pipeline.Flush(ctx))
	f.moderator.AssertNotCalled(t, "Moderate", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit")
}

func TestModerationPipeline_AppliesVerdicts(t *testing.T) {
	f := newModerationFixture(t, 2)
	ctx := context.Background()

	good := pendingFighter("good")
	bad := pendingFighter("bad")
	limbo := pendingFighter("limbo")
	f.fighterRepo.On("GetPending", ctx).Return([]*models.Fighter{good, bad, limbo}, nil)
	f.moderator.On("Moderate", ctx, mock.Anything).Return(map[string]models.ModerationDecision{
		"good": {Approved: true},
		"bad":  {Approved: false, Reason: "content policy"},
		// no verdict for limbo
	}, nil)

	f.fighterRepo.On("SetApproved", ctx, "good", true).Return(nil)
	f.rejectionRepo.On("Record", ctx, mock.MatchedBy(func(r *models.Rejection) bool {
		return r.FighterID == "bad" && r.Reason == "content policy" && r.Image == "bad.png"
	})).Return(nil)
	f.fighterRepo.On("Delete", ctx, "bad").Return(nil)
	f.publisher.On("Publish", mock.Anything).Return()

	require.NoError(t, f.pipeline.Flush(ctx))

	f.fighterRepo.AssertExpectations(t)
	f.rejectionRepo.AssertExpectations(t)
	// limbo stays untouched
	f.fighterRepo.AssertNotCalled(t, "SetApproved", ctx, "limbo", mock.Anything)
	f.fighterRepo.AssertNotCalled(t, "Delete", ctx, "limbo")
	f.uow.AssertCalled(t, "Commit")
}

func TestModerationPipeline_ServiceFailureLeavesEverythingPending(t *testing.T) {
	f := newModerationFixture(t, 1)
	ctx := context.Background()

	f.fighterRepo.On("GetPending", ctx).Return([]*models.Fighter{pendingFighter("p1")}, nil)
	f.moderator.On("Moderate", ctx, mock.Anything).Return(nil, errors.New("service unavailable"))

	err := f.pipeline.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moderation service call failed")
	f.fighterRepo.AssertNotCalled(t, "SetApproved", mock.Anything, mock.Anything, mock.Anything)
	f.fighterRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit")
}
