package service

import (
	"context"
	"fmt"

	"brawler/config"
	"brawler/events"
	"brawler/models"

	log "github.com/sirupsen/logrus"
)

type moderationPipeline struct {
	uowFactory UnitOfWorkFactory
	moderator  Moderator
	config     *config.Config
}

// NewModerationPipeline creates a new moderation pipeline
func NewModerationPipeline(uowFactory UnitOfWorkFactory, moderator Moderator, cfg *config.Config) ModerationPipeline {
	return &moderationPipeline{
		uowFactory: uowFactory,
		moderator:  moderator,
		config:     cfg,
	}
}

// Flush batches pending submissions to the moderation service and applies
// the verdicts: approved fighters become schedulable, rejected ones are
// removed and logged to the rejection ledger. Below the batch threshold
// nothing happens. A failed service call leaves everything pending; the
// next tick retries.
func (p *moderationPipeline) Flush(ctx context.Context) error {
	pending, err := p.getPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) < p.config.ModerationBatchMin {
		return nil
	}

	// The moderation call can block for seconds; no transaction is held
	// across it.
	decisions, err := p.moderator.Moderate(ctx, pending)
	if err != nil {
		return fmt.Errorf("moderation service call failed: %w", err)
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	approved, rejected := 0, 0
	for _, fighter := range pending {
		decision, ok := decisions[fighter.ID]
		if !ok {
			// No verdict for this fighter; it stays pending
			continue
		}

		if decision.Approved {
			if err := uow.FighterRepository().SetApproved(ctx, fighter.ID, true); err != nil {
				return fmt.Errorf("failed to approve fighter %s: %w", fighter.ID, err)
			}
			uow.EventBus().Publish(events.CharacterAddedEvent{
				FighterID: fighter.ID,
				Name:      fighter.Name,
			})
			approved++
			continue
		}

		rejection := &models.Rejection{
			FighterID: fighter.ID,
			Name:      fighter.Name,
			Reason:    decision.Reason,
			Image:     fighter.ImageFile,
		}
		if err := uow.RejectionRepository().Record(ctx, rejection); err != nil {
			return fmt.Errorf("failed to record rejection for %s: %w", fighter.ID, err)
		}
		if err := uow.FighterRepository().Delete(ctx, fighter.ID); err != nil {
			return fmt.Errorf("failed to remove rejected fighter %s: %w", fighter.ID, err)
		}
		uow.EventBus().Publish(events.CharacterRemovedEvent{
			FighterID: fighter.ID,
			Reason:    decision.Reason,
		})
		rejected++
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit moderation results: %w", err)
	}

	log.WithFields(log.Fields{
		"batch":    len(pending),
		"approved": approved,
		"rejected": rejected,
	}).Info("Moderation batch applied")

	return nil
}

func (p *moderationPipeline) getPending(ctx context.Context) ([]*models.Fighter, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pending, err := uow.FighterRepository().GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending fighters: %w", err)
	}
	return pending, nil
}
