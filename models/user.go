package models

import (
	"time"
)

// User represents a spectator account identified by a 16-digit account ID.
type User struct {
	ID             string    `db:"id"`
	Username       string    `db:"username"`
	Portrait       string    `db:"portrait"`
	Balance        int64     `db:"balance"`
	LastSubmission time.Time `db:"last_submission"`
	CreatedAt      time.Time `db:"created_at"`
}
