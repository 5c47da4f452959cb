package repository

import (
	"context"
	"fmt"

	"brawler/database"
	"brawler/models"

	"github.com/jackc/pgx/v5"
)

const fighterColumns = `
	id, name, image_file, description, personality, alignment, titles,
	popularity, status, hp, agility, power, wins, losses, approved,
	creator_id, manager_id, team_id, created_at`

// FighterRepository implements the service.FighterRepository interface
type FighterRepository struct {
	q queryable
}

// NewFighterRepository creates a new fighter repository
func NewFighterRepository(db *database.DB) *FighterRepository {
	return &FighterRepository{q: db.Pool}
}

// newFighterRepositoryWithTx creates a new fighter repository with a transaction
func newFighterRepositoryWithTx(tx queryable) *FighterRepository {
	return &FighterRepository{q: tx}
}

func scanFighter(row pgx.Row) (*models.Fighter, error) {
	var f models.Fighter
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.ImageFile,
		&f.Description,
		&f.Personality,
		&f.Alignment,
		&f.Titles,
		&f.Popularity,
		&f.Status,
		&f.HP,
		&f.Agility,
		&f.Power,
		&f.Wins,
		&f.Losses,
		&f.Approved,
		&f.CreatorID,
		&f.ManagerID,
		&f.TeamID,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if f.Titles == nil {
		f.Titles = []string{}
	}
	return &f, nil
}

func (r *FighterRepository) queryFighters(ctx context.Context, query string, args ...any) ([]*models.Fighter, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fighters: %w", err)
	}
	defer rows.Close()

	var fighters []*models.Fighter
	for rows.Next() {
		f, err := scanFighter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fighter: %w", err)
		}
		fighters = append(fighters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fighters: %w", err)
	}
	return fighters, nil
}

// GetByID retrieves a fighter by ID; nil when absent
func (r *FighterRepository) GetByID(ctx context.Context, id string) (*models.Fighter, error) {
	query := `SELECT ` + fighterColumns + ` FROM fighters WHERE id = $1`

	f, err := scanFighter(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fighter %s: %w", id, err)
	}
	return f, nil
}

// Create inserts a new fighter
func (r *FighterRepository) Create(ctx context.Context, fighter *models.Fighter) error {
	if fighter.Titles == nil {
		fighter.Titles = []string{}
	}
	query := `
		INSERT INTO fighters (
			id, name, image_file, description, personality, alignment, titles,
			popularity, status, hp, agility, power, wins, losses, approved,
			creator_id, manager_id, team_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		fighter.ID,
		fighter.Name,
		fighter.ImageFile,
		fighter.Description,
		fighter.Personality,
		fighter.Alignment,
		fighter.Titles,
		fighter.Popularity,
		fighter.Status,
		fighter.HP,
		fighter.Agility,
		fighter.Power,
		fighter.Wins,
		fighter.Losses,
		fighter.Approved,
		fighter.CreatorID,
		fighter.ManagerID,
		fighter.TeamID,
	).Scan(&fighter.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fighter %s: %w", fighter.Name, err)
	}
	return nil
}

// GetFresh returns schedulable fighters with zero total fights
func (r *FighterRepository) GetFresh(ctx context.Context) ([]*models.Fighter, error) {
	query := `
		SELECT ` + fighterColumns + `
		FROM fighters
		WHERE approved AND status = 'active' AND wins + losses = 0
	`
	return r.queryFighters(ctx, query)
}

// GetRandomSchedulable returns up to limit schedulable fighters drawn
// uniformly at random, excluding the given IDs
func (r *FighterRepository) GetRandomSchedulable(ctx context.Context, limit int, excludeIDs ...string) ([]*models.Fighter, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	query := `
		SELECT ` + fighterColumns + `
		FROM fighters
		WHERE approved AND status = 'active' AND NOT (id::text = ANY($2))
		ORDER BY random()
		LIMIT $1
	`
	return r.queryFighters(ctx, query, limit, excludeIDs)
}

// GetPending returns fighters awaiting moderation, oldest first
func (r *FighterRepository) GetPending(ctx context.Context) ([]*models.Fighter, error) {
	query := `
		SELECT ` + fighterColumns + `
		FROM fighters
		WHERE NOT approved
		ORDER BY created_at
	`
	return r.queryFighters(ctx, query)
}

// SetApproved flips a fighter's approval flag
func (r *FighterRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	tag, err := r.q.Exec(ctx, `UPDATE fighters SET approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("failed to set approval for fighter %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fighter %s not found", id)
	}
	return nil
}

// Delete removes a fighter from the roster
func (r *FighterRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM fighters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fighter %s: %w", id, err)
	}
	return nil
}

// UpdateProfile persists a fighter's mutable profile fields
func (r *FighterRepository) UpdateProfile(ctx context.Context, fighter *models.Fighter) error {
	query := `
		UPDATE fighters
		SET name = $2, description = $3, personality = $4, alignment = $5,
		    popularity = $6, hp = $7, agility = $8, power = $9, status = $10
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		fighter.ID,
		fighter.Name,
		fighter.Description,
		fighter.Personality,
		fighter.Alignment,
		fighter.Popularity,
		fighter.HP,
		fighter.Agility,
		fighter.Power,
		fighter.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update fighter %s: %w", fighter.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fighter %s not found", fighter.ID)
	}
	return nil
}

// IncrementRecord bumps wins or losses by one
func (r *FighterRepository) IncrementRecord(ctx context.Context, id string, won bool) error {
	query := `UPDATE fighters SET losses = losses + 1 WHERE id = $1`
	if won {
		query = `UPDATE fighters SET wins = wins + 1 WHERE id = $1`
	}

	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment record for fighter %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fighter %s not found", id)
	}
	return nil
}

// UpdateTitles replaces a fighter's belt list
func (r *FighterRepository) UpdateTitles(ctx context.Context, id string, titles []string) error {
	if titles == nil {
		titles = []string{}
	}
	tag, err := r.q.Exec(ctx, `UPDATE fighters SET titles = $2 WHERE id = $1`, id, titles)
	if err != nil {
		return fmt.Errorf("failed to update titles for fighter %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fighter %s not found", id)
	}
	return nil
}

// GetRoster returns approved fighters ordered by win/loss ratio descending
// then wins descending. An undefeated fighter's ratio counts as their wins.
func (r *FighterRepository) GetRoster(ctx context.Context, limit, offset int) ([]*models.Fighter, error) {
	query := `
		SELECT ` + fighterColumns + `
		FROM fighters
		WHERE approved
		ORDER BY
			CASE WHEN losses = 0 THEN wins * 1.0 ELSE wins * 1.0 / losses END DESC,
			wins DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryFighters(ctx, query, limit, offset)
}
