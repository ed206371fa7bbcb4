package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// IdentityHandler exposes the caller's own access profile.
type IdentityHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewIdentityHandler builds IdentityHandler instance.
func NewIdentityHandler(logger *slog.Logger, service *Service) *IdentityHandler {
	return &IdentityHandler{logger: logger, service: service}
}

// MountRoutes registers identity routes.
func (h *IdentityHandler) MountRoutes(r chi.Router) {
	r.Get("/grants", h.listGrants)
	r.Get("/roles", h.listRoles)
}

func (h *IdentityHandler) listGrants(w http.ResponseWriter, r *http.Request) {
	userID := shared.CurrentUserID(r.Context())
	if userID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}
	grants, err := h.service.EffectiveGrants(r.Context(), userID)
	if err != nil {
		h.logger.Error("list effective grants", slog.Any("error", err), slog.String("user", userID))
		httpx.RespondError(w, err)
		return
	}
	if grants == nil {
		grants = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grants": grants})
}

func (h *IdentityHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	userID := shared.CurrentUserID(r.Context())
	if userID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}
	roles, err := h.service.repo.UserRoleIDs(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user roles", slog.Any("error", err), slog.String("user", userID))
		httpx.RespondError(w, err)
		return
	}
	if roles == nil {
		roles = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}
