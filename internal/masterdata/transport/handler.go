package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/rbac"
	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// Handler manages transportation company HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, rbac: rbac}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	items, page, err := h.service.List(r.Context(), req)
	if err != nil {
		shared.Fail(h.logger, w, "list transportation companies failed", err)
		return
	}
	httpx.Page(w, httpx.PageMeta{Page: page.Page, Size: page.Size, Total: page.Total, HasNext: page.HasNext}, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.Fail(h.logger, w, "get transportation company failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req Company
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		shared.Fail(h.logger, w, "create transportation company failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req Company
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.Update(r.Context(), req)
	if err != nil {
		shared.Fail(h.logger, w, "update transportation company failed", err, "id", req.ID)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.Activate(r.Context(), id)
	if err != nil {
		shared.Fail(h.logger, w, "activate transportation company failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		shared.Fail(h.logger, w, "deactivate transportation company failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
