package repository

import (
	"context"
	"fmt"

	"brawler/database"
	"brawler/models"

	"github.com/jackc/pgx/v5"
)

// RejectionRepository implements the service.RejectionRepository interface.
// The ledger is append-only: entries are never updated or removed.
type RejectionRepository struct {
	q queryable
}

// NewRejectionRepository creates a new rejection repository
func NewRejectionRepository(db *database.DB) *RejectionRepository {
	return &RejectionRepository{q: db.Pool}
}

// newRejectionRepositoryWithTx creates a new rejection repository with a transaction
func newRejectionRepositoryWithTx(tx queryable) *RejectionRepository {
	return &RejectionRepository{q: tx}
}

// Record appends a rejection entry
func (r *RejectionRepository) Record(ctx context.Context, rejection *models.Rejection) error {
	query := `
		INSERT INTO rejections (fighter_id, name, reason, image)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		rejection.FighterID,
		rejection.Name,
		rejection.Reason,
		rejection.Image,
	).Scan(&rejection.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record rejection for fighter %s: %w", rejection.FighterID, err)
	}
	return nil
}

// GetByFighterID retrieves a rejection entry; nil when absent
func (r *RejectionRepository) GetByFighterID(ctx context.Context, fighterID string) (*models.Rejection, error) {
	query := `
		SELECT fighter_id, name, reason, image, created_at
		FROM rejections
		WHERE fighter_id = $1
	`

	var rej models.Rejection
	err := r.q.QueryRow(ctx, query, fighterID).Scan(
		&rej.FighterID,
		&rej.Name,
		&rej.Reason,
		&rej.Image,
		&rej.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rejection for fighter %s: %w", fighterID, err)
	}
	return &rej, nil
}
