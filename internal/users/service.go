package users

import (
	"context"
	"strings"

	"github.com/meridian-hq/meridian/internal/shared"
)

const usersPerPage = 20

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id, name string, isActive bool) (User, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns one page of users along with pagination metadata.
func (s *Service) ListUsers(ctx context.Context, page int) ([]User, shared.Pagination, error) {
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, usersPerPage, total)
	list, err := s.repo.ListUsers(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}

// GetUser fetches a single user.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateProfile changes a user's display name and active flag.
func (s *Service) UpdateProfile(ctx context.Context, id, name string, isActive bool) (User, error) {
	return s.repo.UpdateProfile(ctx, id, strings.TrimSpace(name), isActive)
}
