package service

import (
	"context"
	"fmt"

	"brawler/models"
)

// rosterPageSize is the number of entries per roster or history page
const rosterPageSize = 10

type rosterService struct {
	uowFactory UnitOfWorkFactory
}

// NewRosterService creates a new roster service
func NewRosterService(uowFactory UnitOfWorkFactory) RosterService {
	return &rosterService{uowFactory: uowFactory}
}

// Roster returns one page of approved fighters, best record first
func (s *rosterService) Roster(ctx context.Context, page int) ([]*models.Fighter, error) {
	if page < 1 {
		page = 1
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	fighters, err := uow.FighterRepository().GetRoster(ctx, rosterPageSize, (page-1)*rosterPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return fighters, nil
}

// History returns one page of match history, newest first
func (s *rosterService) History(ctx context.Context, page int) ([]*models.MatchRecord, error) {
	if page < 1 {
		page = 1
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.MatchHistoryRepository().GetRecent(ctx, rosterPageSize, (page-1)*rosterPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get match history: %w", err)
	}
	return records, nil
}
