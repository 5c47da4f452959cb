package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brawler/config"
	"brawler/models"

	"github.com/google/uuid"
)

// placeholderName is used until the resolver christens the fighter on
// its first match.
const placeholderName = "???"

type submissionService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(uowFactory UnitOfWorkFactory, cfg *config.Config) SubmissionService {
	return &submissionService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// SubmitFighter accepts a new fighter draft into the approval queue. The
// submitter pays the submission fee and becomes both creator and manager.
func (s *submissionService) SubmitFighter(ctx context.Context, userID, name, imageFile string) (*models.Fighter, int64, error) {
	if imageFile == "" {
		return nil, 0, models.NewValidationError("a portrait image is required")
	}
	if name == "" {
		name = placeholderName
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, 0, models.NewValidationError("account not found")
	}

	if since := time.Since(user.LastSubmission); since < s.config.SubmissionCooldown {
		remaining := (s.config.SubmissionCooldown - since).Round(time.Second)
		return nil, 0, models.NewValidationError("you can submit again in %s", remaining)
	}

	newBalance, err := uow.UserRepository().DeductBalance(ctx, userID, s.config.SubmissionCost)
	if errors.Is(err, models.ErrInsufficientFunds) {
		return nil, 0, models.NewValidationError("submitting a fighter costs %d", s.config.SubmissionCost)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to charge submission fee: %w", err)
	}

	fighter := &models.Fighter{
		ID:         uuid.New().String(),
		Name:       name,
		ImageFile:  imageFile,
		Popularity: 1,
		Status:     models.FighterStatusActive,
		Titles:     []string{},
		Approved:   false,
		CreatorID:  &userID,
		ManagerID:  &userID,
	}
	if err := uow.FighterRepository().Create(ctx, fighter); err != nil {
		return nil, 0, fmt.Errorf("failed to create fighter: %w", err)
	}

	if err := uow.UserRepository().SetLastSubmission(ctx, userID, time.Now()); err != nil {
		return nil, 0, fmt.Errorf("failed to stamp submission cooldown: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit submission: %w", err)
	}

	return fighter, newBalance, nil
}
