package challans

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/rbac"
	"github.com/solutions-liquify/tms/internal/shared"
)

// Handler manages delivery challan HTTP endpoints.
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
		r.Use(h.rbac.RequireAny(shared.PermDeliveryChallanView))
		r.Post("/list", h.list)
		r.Get("/get/{id}", h.get)
	})

	// Edit routes
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDeliveryChallanEdit))
		r.Post("/create", h.create)
		r.Get("/create/from-delivery-order/{orderId}", h.createFromOrder)
		r.Post("/update", h.update)
	})

	// Action routes
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDeliveryChallanDeliver))
		r.Post("/mark-delivered/{id}", h.markDelivered)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDeliveryChallanCancel))
		r.Delete("/cancel/{id}", h.cancel)
	})
}

// MountOrderRoutes registers the challan routes that live under
// /delivery-orders.
func (h *Handler) MountOrderRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDeliveryOrderEdit, shared.PermDeliveryChallanEdit))
		r.Post("/update-and-create-challan", h.updateOrderAndCreate)
	})
}

// list handles POST /delivery-challans/list
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	records, page, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list challans failed", err)
		return
	}
	httpx.Page(w, httpx.PageMeta{Page: page.Page, Size: page.Size, Total: page.Total, HasNext: page.HasNext}, records)
}

// get handles GET /delivery-challans/get/{id}
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	challan, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get challan failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, challan)
}

// create handles POST /delivery-challans/create
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req DeliveryChallan
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	challan, err := h.service.Create(r.Context(), req, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, "create challan failed", err, "delivery_order_id", req.DeliveryOrderID)
		return
	}
	httpx.JSON(w, http.StatusCreated, challan)
}

// createFromOrder handles GET /delivery-challans/create/from-delivery-order/{orderId}
func (h *Handler) createFromOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	challan, err := h.service.CreateFromDeliveryOrder(r.Context(), orderID, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, "create challan failed", err, "delivery_order_id", orderID)
		return
	}
	httpx.JSON(w, http.StatusCreated, challan)
}

// update handles POST /delivery-challans/update
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req DeliveryChallan
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	challan, err := h.service.Update(r.Context(), req)
	if err != nil {
		h.fail(w, "update challan failed", err, "id", req.ID)
		return
	}
	httpx.JSON(w, http.StatusOK, challan)
}

// markDelivered handles POST /delivery-challans/mark-delivered/{id}
func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	challan, err := h.service.MarkDelivered(r.Context(), id)
	if err != nil {
		h.fail(w, "mark challan delivered failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, challan)
}

// cancel handles DELETE /delivery-challans/cancel/{id}
func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	challan, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.fail(w, "cancel challan failed", err, "id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, challan)
}

// updateOrderAndCreate handles POST /delivery-orders/update-and-create-challan
func (h *Handler) updateOrderAndCreate(w http.ResponseWriter, r *http.Request) {
	var req orders.DeliveryOrder
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	result, err := h.service.SaveOrderAndCreateChallan(r.Context(), req, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, "update order and create challan failed", err, "delivery_order_id", req.ID)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, args ...any) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, append([]any{"error", err}, args...)...)
	} else {
		h.logger.Info(msg, append([]any{"error", err}, args...)...)
	}
	httpx.RespondError(w, err)
}
