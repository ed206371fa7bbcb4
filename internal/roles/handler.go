package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
	"github.com/meridian-hq/meridian/internal/view"
)

// Handler manages role management endpoints, including the grant and member
// assignment screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbacSvc   *rbac.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacSvc *rbac.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbacSvc: rbacSvc, templates: templates, csrf: csrf, sessions: sessions, guard: guard}
}

// MountRoutes registers the server-rendered role screens.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantRolesList))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantRolesManage))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createRole)
		r.Post("/{id}/delete", h.deleteRole)
		r.Post("/{id}/grants", h.setGrants)
		r.Post("/{id}/members", h.addMember)
		r.Post("/{id}/members/{userID}/remove", h.removeMember)
	})
}

// MountAPIRoutes registers the JSON API endpoints.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantRolesList))
		r.Get("/", h.listRolesJSON)
		r.Get("/{id}", h.getRoleJSON)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantRolesManage))
		r.Post("/", h.createRoleJSON)
		r.Delete("/{id}", h.deleteRoleJSON)
		r.Put("/{id}/grants", h.setGrantsJSON)
		r.Post("/{id}/members", h.addMemberJSON)
		r.Delete("/{id}/members/{userID}", h.removeMemberJSON)
	})
}

type formErrors map[string]string

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": list}, http.StatusOK)
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusNotFound)
		return
	}
	grants, err := h.rbacSvc.RoleGrants(r.Context(), id)
	if err != nil {
		h.logger.Error("role grants", slog.Any("error", err), slog.String("role", id))
	}
	members, err := h.rbacSvc.RoleMembers(r.Context(), id)
	if err != nil {
		h.logger.Error("role members", slog.Any("error", err), slog.String("role", id))
	}
	h.render(w, r, "pages/roles/detail.html", map[string]any{
		"Role":    role,
		"Grants":  grants,
		"Members": members,
		"Errors":  formErrors{},
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/roles/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	_, err := h.service.CreateRole(r.Context(), r.PostFormValue("id"), r.PostFormValue("title"), r.PostFormValue("description"))
	if err != nil {
		h.render(w, r, "pages/roles/form.html", map[string]any{"Errors": formErrors{"general": formMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/roles", "success", "Role created")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.redirectWithFlash(w, r, "/roles", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/roles", "success", "Role deleted")
}

func (h *Handler) setGrants(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	actor := shared.CurrentUserID(r.Context())
	if err := h.rbacSvc.SetRoleGrants(r.Context(), actor, id, splitGrantList(r.PostFormValue("grants"))); err != nil {
		h.logger.Error("set role grants", slog.Any("error", err), slog.String("role", id))
		h.redirectWithFlash(w, r, "/roles/"+id, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/roles/"+id, "success", "Grants updated")
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	userID := strings.TrimSpace(r.PostFormValue("user_id"))
	if userID == "" {
		h.redirectWithFlash(w, r, "/roles/"+id, "error", "User is required")
		return
	}
	actor := shared.CurrentUserID(r.Context())
	if err := h.rbacSvc.AssignRole(r.Context(), actor, userID, id); err != nil {
		h.logger.Error("assign role", slog.Any("error", err), slog.String("role", id))
		h.redirectWithFlash(w, r, "/roles/"+id, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/roles/"+id, "success", "Member added")
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")
	actor := shared.CurrentUserID(r.Context())
	if err := h.rbacSvc.RemoveRole(r.Context(), actor, userID, id); err != nil {
		h.logger.Error("remove role", slog.Any("error", err), slog.String("role", id))
		h.redirectWithFlash(w, r, "/roles/"+id, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/roles/"+id, "success", "Member removed")
}

type roleJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func toRoleJSON(role Role) roleJSON {
	return roleJSON{ID: role.ID, Title: role.Title, Description: role.Description}
}

func (h *Handler) listRolesJSON(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleJSON, len(list))
	for i, role := range list {
		out[i] = toRoleJSON(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) getRoleJSON(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	grants, err := h.rbacSvc.RoleGrants(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":          role.ID,
		"title":       role.Title,
		"description": role.Description,
		"grants":      grants,
	})
}

type createRoleRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) createRoleJSON(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.ID, req.Title, req.Description)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleJSON(role))
}

func (h *Handler) deleteRoleJSON(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setGrantsRequest struct {
	Grants []string `json:"grants"`
}

func (h *Handler) setGrantsJSON(w http.ResponseWriter, r *http.Request) {
	var req setGrantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "id")
	actor := shared.CurrentUserID(r.Context())
	if err := h.rbacSvc.SetRoleGrants(r.Context(), actor, id, req.Grants); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) addMemberJSON(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.UserID) == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "user_id required")
		return
	}
	actor := shared.CurrentUserID(r.Context())
	if err := h.rbacSvc.AssignRole(r.Context(), actor, req.UserID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMemberJSON(w http.ResponseWriter, r *http.Request) {
	actor := shared.CurrentUserID(r.Context())
	if err := h.rbacSvc.RemoveRole(r.Context(), actor, chi.URLParam(r, "userID"), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// splitGrantList parses the textarea input of the grants form, one grant
// identifier per line or comma separated.
func splitGrantList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func mapError(err error) error {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrTitleRequired):
		return httpx.ErrValidation
	default:
		return err
	}
}

func formMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidID):
		return "Identifier may contain only letters, digits and hyphens"
	case errors.Is(err, ErrTitleRequired):
		return "Title is required"
	case errors.Is(err, httpx.ErrDuplicate):
		return "A role with this identifier or title already exists"
	default:
		return shared.UserSafeMessage(err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
