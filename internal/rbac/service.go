package rbac

import (
	"context"
	"log/slog"
	"strings"

	"github.com/meridian-hq/meridian/internal/shared"
)

// Service evaluates grant and role requirements against the permission store
// and carries the membership administration operations. It holds no mutable
// state of its own; every check re-reads the store.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a Service backed by the provided repository. The
// audit logger may be nil, in which case admin mutations are not recorded.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// HasGrants reports whether the user's effective grant set satisfies the
// required grant identifiers or wildcard patterns. An empty user ID or an
// empty requirement list is never satisfied and touches the store in neither
// case. Unknown grant identifiers simply fail to match.
func (s *Service) HasGrants(ctx context.Context, userID string, required []string, strategy Strategy) (bool, error) {
	if userID == "" || len(required) == 0 {
		return false, nil
	}

	roleIDs, err := s.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(roleIDs) == 0 {
		return false, nil
	}

	grantIDs, err := s.repo.RoleGrantIDs(ctx, roleIDs)
	if err != nil {
		return false, err
	}
	if len(grantIDs) == 0 {
		return false, nil
	}

	held := make(map[string]struct{}, len(grantIDs))
	for _, id := range grantIDs {
		held[id] = struct{}{}
	}

	// Each requirement counts once, even when several effective grants
	// satisfy the same pattern.
	satisfied := 0
	for _, req := range required {
		var ok bool
		if strings.Contains(req, Wildcard) {
			for _, id := range grantIDs {
				if MatchPattern(req, id) {
					ok = true
					break
				}
			}
		} else {
			_, ok = held[req]
		}
		if ok {
			if strategy.orDefault() == StrategyAny {
				return true, nil
			}
			satisfied++
		}
	}
	return strategy.orDefault() == StrategyAll && satisfied == len(required), nil
}

// HasRoles reports whether the user's role set satisfies the required role
// identifiers. Exact identifier match only; no wildcard support.
func (s *Service) HasRoles(ctx context.Context, userID string, required []string, strategy Strategy) (bool, error) {
	if userID == "" || len(required) == 0 {
		return false, nil
	}

	roleIDs, err := s.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(roleIDs) == 0 {
		return false, nil
	}

	held := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		held[id] = struct{}{}
	}

	satisfied := 0
	for _, req := range required {
		if _, ok := held[req]; ok {
			if strategy.orDefault() == StrategyAny {
				return true, nil
			}
			satisfied++
		}
	}
	return strategy.orDefault() == StrategyAll && satisfied == len(required), nil
}

// EffectiveGrants returns the deduplicated grant identifiers reachable from
// the user through all of their role memberships.
func (s *Service) EffectiveGrants(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	roleIDs, err := s.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return s.repo.RoleGrantIDs(ctx, roleIDs)
}

// AssignRole adds the user to the role and records the mutation.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID string) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actorID, "rbac.role.assign", "role_membership", roleID+"/"+userID, nil)
	return nil
}

// RemoveRole removes the user from the role and records the mutation.
func (s *Service) RemoveRole(ctx context.Context, actorID, userID, roleID string) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actorID, "rbac.role.remove", "role_membership", roleID+"/"+userID, nil)
	return nil
}

// SetRoleGrants replaces the grants attached to a role by diffing the
// current set against the requested one.
func (s *Service) SetRoleGrants(ctx context.Context, actorID, roleID string, grantIDs []string) error {
	current, err := s.repo.RoleGrants(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(current))
	for _, id := range current {
		existing[id] = struct{}{}
	}
	keep := make(map[string]struct{}, len(grantIDs))
	var attach []string
	for _, id := range grantIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			attach = append(attach, id)
		}
	}
	var detach []string
	for _, id := range current {
		if _, ok := keep[id]; !ok {
			detach = append(detach, id)
		}
	}
	if len(attach) > 0 || len(detach) > 0 {
		if err := s.repo.ReplaceGrants(ctx, roleID, attach, detach); err != nil {
			return err
		}
	}
	s.record(ctx, actorID, "rbac.role.grants", "role", roleID, map[string]any{"grants": grantIDs})
	return nil
}

// RoleGrants returns the grants attached directly to one role.
func (s *Service) RoleGrants(ctx context.Context, roleID string) ([]string, error) {
	return s.repo.RoleGrants(ctx, roleID)
}

// RoleMembers lists the users attached to a role.
func (s *Service) RoleMembers(ctx context.Context, roleID string) ([]Member, error) {
	return s.repo.RoleMembers(ctx, roleID)
}

func (s *Service) record(ctx context.Context, actorID, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: entity, EntityID: entityID, Meta: meta}); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
