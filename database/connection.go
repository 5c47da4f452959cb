package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the pgx pool every repository and unit of work runs on
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool against the given URL and verifies it is
// reachable before handing it out.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the pool and all its connections
func (db *DB) Close() {
	db.Pool.Close()
}
