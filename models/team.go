package models

import (
	"time"
)

// Team represents a stable of fighters that can be booked as one side
// of a 2v2 match. MemberIDs is ordered.
type Team struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ManagerID *string   `db:"manager_id"`
	MemberIDs []string  `db:"member_ids"`
	CreatedAt time.Time `db:"created_at"`
}
