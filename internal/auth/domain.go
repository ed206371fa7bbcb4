package auth

import "time"

// User represents an authenticated user account. An empty PasswordHash marks
// an external-identity-only account that cannot log in with a password.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
