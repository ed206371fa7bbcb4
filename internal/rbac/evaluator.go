package rbac

import "context"

// Status is the outcome of an access evaluation.
type Status string

const (
	// StatusGranted allows the request through.
	StatusGranted Status = "granted"
	// StatusUnauthenticated means requirements exist but no identity was supplied.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusForbidden means the identity lacks a required grant or role.
	StatusForbidden Status = "forbidden"
)

// Failure reasons reported on forbidden decisions.
const (
	ReasonMissingGrants = "Missing required grants"
	ReasonMissingRoles  = "Missing required roles"
)

// Requirement describes what a route demands from the acting user. Grants
// are always checked with the ALL strategy; only roles expose a strategy.
type Requirement struct {
	Grants       []string
	Roles        []string
	RoleStrategy Strategy
}

// Empty reports whether the requirement gates nothing.
func (r Requirement) Empty() bool {
	return len(r.Grants) == 0 && len(r.Roles) == 0
}

// Decision is the result of CheckAccess.
type Decision struct {
	Status Status
	Reason string
}

// CheckAccess evaluates the requirement for the given user. The identity is
// an explicit parameter so the evaluator stays a pure function of the store
// contents. An empty requirement is granted unconditionally. When
// requirements exist and no identity is supplied the decision is
// unauthenticated, distinct from forbidden. Grant and role requirements must
// both pass; they are not alternatives.
func (s *Service) CheckAccess(ctx context.Context, userID string, req Requirement) (Decision, error) {
	if req.Empty() {
		return Decision{Status: StatusGranted}, nil
	}
	if userID == "" {
		return Decision{Status: StatusUnauthenticated}, nil
	}

	if len(req.Grants) > 0 {
		ok, err := s.HasGrants(ctx, userID, req.Grants, StrategyAll)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{Status: StatusForbidden, Reason: ReasonMissingGrants}, nil
		}
	}

	if len(req.Roles) > 0 {
		ok, err := s.HasRoles(ctx, userID, req.Roles, req.RoleStrategy)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{Status: StatusForbidden, Reason: ReasonMissingRoles}, nil
		}
	}

	return Decision{Status: StatusGranted}, nil
}
