package repository

import (
	"context"
	"fmt"

	"brawler/database"
	"brawler/models"
)

// MatchHistoryRepository implements the service.MatchHistoryRepository interface
type MatchHistoryRepository struct {
	q queryable
}

// NewMatchHistoryRepository creates a new match history repository
func NewMatchHistoryRepository(db *database.DB) *MatchHistoryRepository {
	return &MatchHistoryRepository{q: db.Pool}
}

// newMatchHistoryRepositoryWithTx creates a new match history repository with a transaction
func newMatchHistoryRepositoryWithTx(tx queryable) *MatchHistoryRepository {
	return &MatchHistoryRepository{q: tx}
}

// Record appends a match history entry
func (r *MatchHistoryRepository) Record(ctx context.Context, record *models.MatchRecord) error {
	query := `
		INSERT INTO match_history (match_type, rosters, winner_id, winner_name, summary, title_bout, title_exchanged)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, fought_at
	`

	err := r.q.QueryRow(ctx, query,
		record.MatchType,
		record.Rosters,
		record.WinnerID,
		record.WinnerName,
		record.Summary,
		record.TitleBout,
		record.TitleExchanged,
	).Scan(&record.ID, &record.FoughtAt)
	if err != nil {
		return fmt.Errorf("failed to record match history: %w", err)
	}
	return nil
}

// GetRecent returns history entries, newest first
func (r *MatchHistoryRepository) GetRecent(ctx context.Context, limit, offset int) ([]*models.MatchRecord, error) {
	query := `
		SELECT id, fought_at, match_type, rosters, winner_id, winner_name, summary, title_bout, title_exchanged
		FROM match_history
		ORDER BY fought_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}
	defer rows.Close()

	var records []*models.MatchRecord
	for rows.Next() {
		var rec models.MatchRecord
		err := rows.Scan(
			&rec.ID,
			&rec.FoughtAt,
			&rec.MatchType,
			&rec.Rosters,
			&rec.WinnerID,
			&rec.WinnerName,
			&rec.Summary,
			&rec.TitleBout,
			&rec.TitleExchanged,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match history: %w", err)
	}
	return records, nil
}
