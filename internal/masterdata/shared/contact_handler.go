package shared

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/rbac"
	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// ContactHandler serves the HTTP routes of a contact entity.
type ContactHandler struct {
	logger   *slog.Logger
	service  *ContactService
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewContactHandler creates the handler.
func NewContactHandler(logger *slog.Logger, service *ContactService, validate *validator.Validate, rbac rbac.Middleware) *ContactHandler {
	return &ContactHandler{logger: logger, service: service, validate: validate, rbac: rbac}
}

// MountRoutes registers routes on the router.
func (h *ContactHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(platformshared.PermMasterDataView))
		r.Post("/list", h.list)
		r.Get("/get/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(platformshared.PermMasterDataEdit))
		r.Post("/create", h.create)
		r.Post("/update", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(platformshared.PermMasterDataLifecycle))
		r.Get("/activate/{id}", h.activate)
		r.Get("/deactivate/{id}", h.deactivate)
	})
}

func (h *ContactHandler) list(w http.ResponseWriter, r *http.Request) {
	var req ContactListRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	items, page, err := h.service.List(r.Context(), req)
	if err != nil {
		Fail(h.logger, w, "list "+h.service.entity+" failed", err)
		return
	}
	httpx.Page(w, httpx.PageMeta{Page: page.Page, Size: page.Size, Total: page.Total, HasNext: page.HasNext}, items)
}

func (h *ContactHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		Fail(h.logger, w, "get "+h.service.entity+" failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ContactHandler) create(w http.ResponseWriter, r *http.Request) {
	var req Contact
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		Fail(h.logger, w, "create "+h.service.entity+" failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ContactHandler) update(w http.ResponseWriter, r *http.Request) {
	var req Contact
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.Update(r.Context(), req)
	if err != nil {
		Fail(h.logger, w, "update "+h.service.entity+" failed", err, "id", req.ID)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ContactHandler) activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.Activate(r.Context(), id)
	if err != nil {
		Fail(h.logger, w, "activate "+h.service.entity+" failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ContactHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		Fail(h.logger, w, "deactivate "+h.service.entity+" failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Fail logs err at a level matching its status and writes the problem response.
func Fail(logger *slog.Logger, w http.ResponseWriter, msg string, err error, args ...any) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		logger.Error(msg, append([]any{"error", err}, args...)...)
	} else {
		logger.Info(msg, append([]any{"error", err}, args...)...)
	}
	httpx.RespondError(w, err)
}
