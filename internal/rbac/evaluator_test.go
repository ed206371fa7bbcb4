package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAccessEmptyRequirementGranted(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	decision, err := svc.CheckAccess(context.Background(), "", Requirement{})
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, decision.Status)
	assert.Empty(t, decision.Reason)
}

func TestCheckAccessUnauthenticatedWhenGated(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	decision, err := svc.CheckAccess(context.Background(), "", Requirement{Grants: []string{"users:list"}})
	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, decision.Status)
}

func TestCheckAccessGrants(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	repo.grants["backoffice"] = []string{"users:list"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	decision, err := svc.CheckAccess(ctx, "u1", Requirement{Grants: []string{"users:list"}})
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, decision.Status)

	decision, err = svc.CheckAccess(ctx, "u1", Requirement{Grants: []string{"users:delete"}})
	require.NoError(t, err)
	assert.Equal(t, StatusForbidden, decision.Status)
	assert.Equal(t, ReasonMissingGrants, decision.Reason)

	// Grants are always evaluated with the ALL strategy.
	decision, err = svc.CheckAccess(ctx, "u1", Requirement{Grants: []string{"users:list", "users:delete"}})
	require.NoError(t, err)
	assert.Equal(t, StatusForbidden, decision.Status)
}

func TestCheckAccessRoleStrategy(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"auditor"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	decision, err := svc.CheckAccess(ctx, "u1", Requirement{Roles: []string{"auditor", "admin"}, RoleStrategy: StrategyAny})
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, decision.Status)

	decision, err = svc.CheckAccess(ctx, "u1", Requirement{Roles: []string{"auditor", "admin"}})
	require.NoError(t, err)
	assert.Equal(t, StatusForbidden, decision.Status)
	assert.Equal(t, ReasonMissingRoles, decision.Reason)
}

func TestCheckAccessGrantsAndRolesBothRequired(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	repo.grants["backoffice"] = []string{"users:list"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	// Grant check passes, role check does not: overall forbidden.
	decision, err := svc.CheckAccess(ctx, "u1", Requirement{
		Grants: []string{"users:list"},
		Roles:  []string{"admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusForbidden, decision.Status)
	assert.Equal(t, ReasonMissingRoles, decision.Reason)

	decision, err = svc.CheckAccess(ctx, "u1", Requirement{
		Grants: []string{"users:list"},
		Roles:  []string{"backoffice"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, decision.Status)
}

func TestCheckAccessStoreFailure(t *testing.T) {
	repo := newStubRepo()
	repo.failWith = errors.New("store down")
	svc := NewService(repo, nil, nil)

	_, err := svc.CheckAccess(context.Background(), "u1", Requirement{Grants: []string{"users:list"}})
	assert.Error(t, err)
}
