package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/rbac"
	"github.com/solutions-liquify/tms/internal/shared"
)

// Handler manages delivery order HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validate,
		rbac:     rbac,
	}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	// View routes
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermDeliveryOrderView))
		r.Post("/list", h.list)
		r.Post("/list-pending-items", h.listPendingItems)
		r.Get("/get/{id}", h.get)
		r.Get("/list-items/{id}", h.listItems)
	})

	// Edit routes
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDeliveryOrderEdit))
		r.Post("/create", h.create)
		r.Post("/update", h.update)
	})

	// Action routes
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDeliveryOrderCancel))
		r.Delete("/cancel/{id}", h.cancel)
	})
}

// list handles POST /delivery-orders/list
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	records, page, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list orders failed", err)
		return
	}
	httpx.Page(w, httpx.PageMeta{Page: page.Page, Size: page.Size, Total: page.Total, HasNext: page.HasNext}, records)
}

// listPendingItems handles POST /delivery-orders/list-pending-items
func (h *Handler) listPendingItems(w http.ResponseWriter, r *http.Request) {
	var req PendingItemsRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	items, page, err := h.service.ListPendingItems(r.Context(), req)
	if err != nil {
		h.fail(w, "list pending items failed", err)
		return
	}
	httpx.Page(w, httpx.PageMeta{Page: page.Page, Size: page.Size, Total: page.Total, HasNext: page.HasNext}, items)
}

// get handles GET /delivery-orders/get/{id}
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get order failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// listItems handles GET /delivery-orders/list-items/{id}
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := h.service.ListItems(r.Context(), id)
	if err != nil {
		h.fail(w, "list order items failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// create handles POST /delivery-orders/create
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req DeliveryOrder
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create order failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// update handles POST /delivery-orders/update
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req DeliveryOrder
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	order, err := h.service.Update(r.Context(), req)
	if err != nil {
		h.fail(w, "update order failed", err, "id", req.ID)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// cancel handles DELETE /delivery-orders/cancel/{id}
func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.fail(w, "cancel order failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, args ...any) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, append([]any{"error", err}, args...)...)
	} else {
		h.logger.Info(msg, append([]any{"error", err}, args...)...)
	}
	httpx.RespondError(w, err)
}
