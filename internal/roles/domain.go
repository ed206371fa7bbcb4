package roles

import "time"

// Role represents a role for management.
type Role struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
