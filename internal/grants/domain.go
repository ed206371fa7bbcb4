package grants

import "time"

// Grant represents an atomic permission for management, conventionally
// namespaced as resource:action.
type Grant struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
