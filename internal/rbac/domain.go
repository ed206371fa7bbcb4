package rbac

import (
	"regexp"
	"time"
)

// Strategy controls how a list of requirements must be satisfied.
type Strategy string

const (
	// StrategyAll requires every listed identifier to be satisfied.
	StrategyAll Strategy = "all"
	// StrategyAny requires at least one listed identifier to be satisfied.
	StrategyAny Strategy = "any"
)

// orDefault resolves the zero value to StrategyAll.
func (s Strategy) orDefault() Strategy {
	if s == StrategyAny {
		return StrategyAny
	}
	return StrategyAll
}

// Role represents a named bundle of grants assignable to users.
type Role struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Grant represents an atomic permission, conventionally namespaced
// as resource:action.
type Grant struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleMembership links a user to a role.
type RoleMembership struct {
	RoleID    string
	UserID    string
	CreatedAt time.Time
}

// RoleGrant ties a grant to a role.
type RoleGrant struct {
	RoleID    string
	GrantID   string
	CreatedAt time.Time
}

// Member describes a user attached to a role, as shown on role detail pages.
type Member struct {
	UserID string
	Email  string
	Since  time.Time
}

var (
	roleIDPattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	grantIDPattern = regexp.MustCompile(`^[A-Za-z0-9:-]+$`)
)

// ValidRoleID reports whether id is a well-formed role identifier.
func ValidRoleID(id string) bool {
	return roleIDPattern.MatchString(id)
}

// ValidGrantID reports whether id is a well-formed grant identifier.
// Wildcard requirements are not valid stored identifiers.
func ValidGrantID(id string) bool {
	return grantIDPattern.MatchString(id)
}
