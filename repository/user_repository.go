package repository

import (
	"context"
	"fmt"
	"time"

	"brawler/database"
	"brawler/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by their account ID; nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, portrait, balance, last_submission, created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Portrait,
		&user.Balance,
		&user.LastSubmission,
		&user.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	return &user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, portrait, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, last_submission
	`

	err := r.q.QueryRow(ctx, query, user.ID, user.Username, user.Portrait, user.Balance).
		Scan(&user.CreatedAt, &user.LastSubmission)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

// AddBalance credits a user's balance atomically and returns the new balance
func (r *UserRepository) AddBalance(ctx context.Context, id string, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("user %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for user %s: %w", id, err)
	}
	return balance, nil
}

// DeductBalance debits a user's balance atomically. The conditional
// update guarantees the balance never goes negative under concurrency.
func (r *UserRepository) DeductBalance(ctx context.Context, id string, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, models.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %s: %w", id, err)
	}
	return balance, nil
}

// SetLastSubmission stamps the user's submission cooldown
func (r *UserRepository) SetLastSubmission(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_submission = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to set last submission for user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}
