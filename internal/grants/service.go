package grants

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-hq/meridian/internal/rbac"
)

// Validation errors returned before touching the store.
var (
	ErrInvalidID     = errors.New("grants: identifier must contain only letters, digits, hyphens and colons")
	ErrTitleRequired = errors.New("grants: title required")
)

// RepositoryPort defines data access methods for grants.
type RepositoryPort interface {
	ListGrants(ctx context.Context) ([]Grant, error)
	GetGrant(ctx context.Context, id string) (Grant, error)
	CreateGrant(ctx context.Context, id, title, description string) (Grant, error)
	DeleteGrant(ctx context.Context, id string) error
}

// Service handles grant business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListGrants returns all grants.
func (s *Service) ListGrants(ctx context.Context) ([]Grant, error) {
	return s.repo.ListGrants(ctx)
}

// GetGrant fetches a grant by ID.
func (s *Service) GetGrant(ctx context.Context, id string) (Grant, error) {
	return s.repo.GetGrant(ctx, id)
}

// CreateGrant validates and inserts a new grant.
func (s *Service) CreateGrant(ctx context.Context, id, title, description string) (Grant, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if !rbac.ValidGrantID(id) {
		return Grant{}, ErrInvalidID
	}
	if title == "" {
		return Grant{}, ErrTitleRequired
	}
	return s.repo.CreateGrant(ctx, id, title, strings.TrimSpace(description))
}

// DeleteGrant removes a grant.
func (s *Service) DeleteGrant(ctx context.Context, id string) error {
	return s.repo.DeleteGrant(ctx, id)
}
