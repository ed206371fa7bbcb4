package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-hq/meridian/internal/observability"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Middleware wires the route guard for HTTP handlers. It is stateless;
// every invocation re-reads the permission store.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

type rejection struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Require wraps a handler and evaluates the requirement before it runs.
// The wrapped handler is never invoked unless the decision is granted.
func (m Middleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := shared.CurrentUserID(r.Context())

			decision, err := m.Service.CheckAccess(r.Context(), userID, req)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("evaluate access", slog.Any("error", err), slog.String("path", r.URL.Path))
				}
				m.Metrics.ObserveAuthzDecision("error")
				httpx.JSON(w, http.StatusInternalServerError, rejection{Error: "Internal Server Error", Message: "Access evaluation failed"})
				return
			}

			m.Metrics.ObserveAuthzDecision(string(decision.Status))
			switch decision.Status {
			case StatusGranted:
				next.ServeHTTP(w, r)
			case StatusUnauthenticated:
				httpx.JSON(w, http.StatusUnauthorized, rejection{Error: "Unauthorized", Message: "Authentication required"})
			case StatusForbidden:
				httpx.JSON(w, http.StatusForbidden, rejection{Error: "Forbidden", Message: "Access denied"})
			default:
				if m.Logger != nil {
					m.Logger.Error("unexpected access decision", slog.String("status", string(decision.Status)))
				}
				httpx.JSON(w, http.StatusInternalServerError, rejection{Error: "Internal Server Error", Message: "Unexpected access state"})
			}
		})
	}
}

// RequireGrants gates a route on the given grant identifiers or patterns,
// all of which must be satisfied.
func (m Middleware) RequireGrants(ids ...string) func(http.Handler) http.Handler {
	return m.Require(Requirement{Grants: ids})
}

// RequireRoles gates a route on the given role identifiers under the
// supplied strategy.
func (m Middleware) RequireRoles(strategy Strategy, ids ...string) func(http.Handler) http.Handler {
	return m.Require(Requirement{Roles: ids, RoleStrategy: strategy})
}
