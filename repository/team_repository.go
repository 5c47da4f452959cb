package repository

import (
	"context"
	"fmt"

	"brawler/database"
	"brawler/models"

	"github.com/jackc/pgx/v5"
)

// TeamRepository implements the service.TeamRepository interface
type TeamRepository struct {
	q queryable
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{q: db.Pool}
}

// newTeamRepositoryWithTx creates a new team repository with a transaction
func newTeamRepositoryWithTx(tx queryable) *TeamRepository {
	return &TeamRepository{q: tx}
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.ManagerID, &t.MemberIDs, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.MemberIDs == nil {
		t.MemberIDs = []string{}
	}
	return &t, nil
}

// GetByID retrieves a team by ID; nil when absent
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `SELECT id, name, manager_id, member_ids, created_at FROM teams WHERE id = $1`

	t, err := scanTeam(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return t, nil
}

// GetRandomPair returns two distinct random teams that have members, or
// nil when fewer than two exist
func (r *TeamRepository) GetRandomPair(ctx context.Context) ([]*models.Team, error) {
	query := `
		SELECT id, name, manager_id, member_ids, created_at
		FROM teams
		WHERE jsonb_array_length(member_ids) > 0
		ORDER BY random()
		LIMIT 2
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}

	if len(teams) < 2 {
		return nil, nil
	}
	return teams, nil
}

// GetMembers returns a team's schedulable fighters in roster order
func (r *TeamRepository) GetMembers(ctx context.Context, team *models.Team) ([]*models.Fighter, error) {
	if len(team.MemberIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + fighterColumns + `
		FROM fighters
		WHERE id::text = ANY($1) AND approved AND status = 'active'
	`

	fighters := FighterRepository{q: r.q}
	members, err := fighters.queryFighters(ctx, query, team.MemberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get members of team %s: %w", team.ID, err)
	}

	// preserve the team's member order
	byID := make(map[string]*models.Fighter, len(members))
	for _, f := range members {
		byID[f.ID] = f
	}
	ordered := make([]*models.Fighter, 0, len(members))
	for _, id := range team.MemberIDs {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}
