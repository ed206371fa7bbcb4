package roles

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-hq/meridian/internal/rbac"
)

// Validation errors returned before touching the store.
var (
	ErrInvalidID     = errors.New("roles: identifier must contain only letters, digits and hyphens")
	ErrTitleRequired = errors.New("roles: title required")
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id string) (Role, error)
	CreateRole(ctx context.Context, id, title, description string) (Role, error)
	UpdateRole(ctx context.Context, id, title, description string) (Role, error)
	DeleteRole(ctx context.Context, id string) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates and inserts a new role.
func (s *Service) CreateRole(ctx context.Context, id, title, description string) (Role, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if !rbac.ValidRoleID(id) {
		return Role{}, ErrInvalidID
	}
	if title == "" {
		return Role{}, ErrTitleRequired
	}
	return s.repo.CreateRole(ctx, id, title, strings.TrimSpace(description))
}

// UpdateRole validates and updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id, title, description string) (Role, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Role{}, ErrTitleRequired
	}
	return s.repo.UpdateRole(ctx, id, title, strings.TrimSpace(description))
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	return s.repo.DeleteRole(ctx, id)
}
