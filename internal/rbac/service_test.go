package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo is an in-memory Repository with query counters so tests can
// assert that short-circuit paths never touch the store.
type stubRepo struct {
	roles  map[string][]string // user ID → role IDs
	grants map[string][]string // role ID → grant IDs

	roleQueries  int
	grantQueries int
	failWith     error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		roles:  make(map[string][]string),
		grants: make(map[string][]string),
	}
}

func (s *stubRepo) UserRoleIDs(ctx context.Context, userID string) ([]string, error) {
	s.roleQueries++
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.roles[userID], nil
}

func (s *stubRepo) RoleGrantIDs(ctx context.Context, roleIDs []string) ([]string, error) {
	s.grantQueries++
	if s.failWith != nil {
		return nil, s.failWith
	}
	seen := make(map[string]struct{})
	var out []string
	for _, roleID := range roleIDs {
		for _, grantID := range s.grants[roleID] {
			if _, ok := seen[grantID]; ok {
				continue
			}
			seen[grantID] = struct{}{}
			out = append(out, grantID)
		}
	}
	return out, nil
}

func (s *stubRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	for _, id := range s.roles[userID] {
		if id == roleID {
			return nil
		}
	}
	s.roles[userID] = append(s.roles[userID], roleID)
	return nil
}

func (s *stubRepo) RemoveRole(ctx context.Context, userID, roleID string) error {
	kept := s.roles[userID][:0]
	for _, id := range s.roles[userID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	s.roles[userID] = kept
	return nil
}

func (s *stubRepo) RoleGrants(ctx context.Context, roleID string) ([]string, error) {
	return append([]string(nil), s.grants[roleID]...), nil
}

func (s *stubRepo) AttachGrant(ctx context.Context, roleID, grantID string) error {
	for _, id := range s.grants[roleID] {
		if id == grantID {
			return nil
		}
	}
	s.grants[roleID] = append(s.grants[roleID], grantID)
	return nil
}

func (s *stubRepo) ReplaceGrants(ctx context.Context, roleID string, attach, detach []string) error {
	for _, grantID := range attach {
		if err := s.AttachGrant(ctx, roleID, grantID); err != nil {
			return err
		}
	}
	for _, grantID := range detach {
		kept := s.grants[roleID][:0]
		for _, id := range s.grants[roleID] {
			if id != grantID {
				kept = append(kept, id)
			}
		}
		s.grants[roleID] = kept
	}
	return nil
}

func (s *stubRepo) RoleMembers(ctx context.Context, roleID string) ([]Member, error) {
	var members []Member
	for userID, roleIDs := range s.roles {
		for _, id := range roleIDs {
			if id == roleID {
				members = append(members, Member{UserID: userID, Since: time.Now()})
			}
		}
	}
	return members, nil
}

var _ Repository = (*stubRepo)(nil)

func TestHasGrantsEmptyInputsSkipStore(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	ok, err := svc.HasGrants(ctx, "", []string{"users:list"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasGrants(ctx, "u1", nil, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Zero(t, repo.roleQueries, "empty inputs must not query the store")
	assert.Zero(t, repo.grantQueries, "empty inputs must not query the store")
}

func TestHasGrantsThroughRoleMembership(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	repo.grants["backoffice"] = []string{"users:list"}
	svc := NewService(repo, nil, nil)

	ok, err := svc.HasGrants(context.Background(), "u1", []string{"users:list"}, StrategyAll)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasGrantsRoleWithoutGrants(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	svc := NewService(repo, nil, nil)

	ok, err := svc.HasGrants(context.Background(), "u1", []string{"users:list"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasGrantsNoRoles(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	ok, err := svc.HasGrants(context.Background(), "stranger", []string{"users:list"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.roleQueries)
	assert.Zero(t, repo.grantQueries, "grant query skipped when user has no roles")
}

func TestHasGrantsAllVsAny(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"r1"}
	repo.grants["r1"] = []string{"g1", "g2"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	ok, err := svc.HasGrants(ctx, "u1", []string{"g1", "g3"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasGrants(ctx, "u1", []string{"g1", "g3"}, StrategyAny)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasGrantsWildcardRequirement(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"staff"}
	repo.grants["staff"] = []string{"users:list", "users:edit"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	// A pattern counts as one satisfied requirement, no matter how many
	// effective grants match it.
	ok, err := svc.HasGrants(ctx, "u1", []string{"users:*"}, StrategyAll)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasGrants(ctx, "u1", []string{"users:*", "admin:*"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasGrants(ctx, "u1", []string{"users:*", "admin:*"}, StrategyAny)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasGrantsDefaultStrategyIsAll(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"r1"}
	repo.grants["r1"] = []string{"g1"}
	svc := NewService(repo, nil, nil)

	ok, err := svc.HasGrants(context.Background(), "u1", []string{"g1", "g2"}, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasGrantsIdempotent(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"r1"}
	repo.grants["r1"] = []string{"g1"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := svc.HasGrants(ctx, "u1", []string{"g1"}, StrategyAll)
		require.NoError(t, err)
		assert.True(t, ok, "repeat %d", i)
	}
}

func TestHasGrantsMonotonicUnderNewMemberships(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"r1"}
	repo.grants["r1"] = []string{"g1"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	ok, err := svc.HasGrants(ctx, "u1", []string{"g1"}, StrategyAll)
	require.NoError(t, err)
	require.True(t, ok)

	// Adding memberships can only grow the effective set.
	require.NoError(t, repo.AssignRole(ctx, "u1", "r2"))
	require.NoError(t, repo.AttachGrant(ctx, "r2", "g2"))

	ok, err = svc.HasGrants(ctx, "u1", []string{"g1"}, StrategyAll)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasGrants(ctx, "u1", []string{"g1", "g2"}, StrategyAll)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasGrantsStoreFailurePropagates(t *testing.T) {
	repo := newStubRepo()
	repo.failWith = errors.New("connection refused")
	svc := NewService(repo, nil, nil)

	_, err := svc.HasGrants(context.Background(), "u1", []string{"g1"}, StrategyAll)
	assert.Error(t, err)
}

func TestHasRoles(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice", "auditor"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	ok, err := svc.HasRoles(ctx, "u1", []string{"backoffice"}, StrategyAll)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasRoles(ctx, "u1", []string{"backoffice", "admin"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasRoles(ctx, "u1", []string{"backoffice", "admin"}, StrategyAny)
	require.NoError(t, err)
	assert.True(t, ok)

	// No wildcard support for roles.
	ok, err = svc.HasRoles(ctx, "u1", []string{"back*"}, StrategyAny)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasRoles(ctx, "", []string{"backoffice"}, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasRoles(ctx, "u1", nil, StrategyAll)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEffectiveGrantsDeduplicates(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"r1", "r2"}
	repo.grants["r1"] = []string{"g1", "g2"}
	repo.grants["r2"] = []string{"g2", "g3"}
	svc := NewService(repo, nil, nil)

	grants, err := svc.EffectiveGrants(context.Background(), "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2", "g3"}, grants)
}

func TestSetRoleGrantsDiffs(t *testing.T) {
	repo := newStubRepo()
	repo.grants["r1"] = []string{"g1", "g2"}
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.SetRoleGrants(context.Background(), "admin-user", "r1", []string{"g2", "g3"}))
	assert.ElementsMatch(t, []string{"g2", "g3"}, repo.grants["r1"])
}
