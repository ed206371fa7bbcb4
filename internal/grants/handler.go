package grants

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
	"github.com/meridian-hq/meridian/internal/view"
)

// Handler manages grant management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	guard     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, guard: guard}
}

// MountRoutes registers the server-rendered grant screens.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantGrantsList))
		r.Get("/", h.listGrants)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantGrantsManage))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createGrant)
		r.Post("/{id}/delete", h.deleteGrant)
	})
}

// MountAPIRoutes registers the JSON API endpoints.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantGrantsList))
		r.Get("/", h.listGrantsJSON)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGrants(shared.GrantGrantsManage))
		r.Post("/", h.createGrantJSON)
		r.Delete("/{id}", h.deleteGrantJSON)
	})
}

type formErrors map[string]string

func (h *Handler) listGrants(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListGrants(r.Context())
	if err != nil {
		h.logger.Error("list grants", slog.Any("error", err))
		h.render(w, r, "pages/grants/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/grants/list.html", map[string]any{"Grants": list}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/grants/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createGrant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	_, err := h.service.CreateGrant(r.Context(), r.PostFormValue("id"), r.PostFormValue("title"), r.PostFormValue("description"))
	if err != nil {
		h.render(w, r, "pages/grants/form.html", map[string]any{"Errors": formErrors{"general": formMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/grants", "success", "Grant created")
}

func (h *Handler) deleteGrant(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGrant(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.redirectWithFlash(w, r, "/grants", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/grants", "success", "Grant deleted")
}

type grantJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) listGrantsJSON(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListGrants(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]grantJSON, len(list))
	for i, grant := range list {
		out[i] = grantJSON{ID: grant.ID, Title: grant.Title, Description: grant.Description}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grants": out})
}

type createGrantRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) createGrantJSON(w http.ResponseWriter, r *http.Request) {
	var req createGrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	grant, err := h.service.CreateGrant(r.Context(), req.ID, req.Title, req.Description)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, grantJSON{ID: grant.ID, Title: grant.Title, Description: grant.Description})
}

func (h *Handler) deleteGrantJSON(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGrant(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
		return "Identifier may contain only letters, digits, hyphens and colons"
	case errors.Is(err, ErrTitleRequired):
		return "Title is required"
	case errors.Is(err, httpx.ErrDuplicate):
		return "A grant with this identifier or title already exists"
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
	viewData := view.TemplateData{Title: "Grants", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
