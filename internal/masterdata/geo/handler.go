package geo

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

// Handler serves the geo lookups.
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

type statesRequest struct {
	States []string `json:"states" validate:"max=100,dive,max=100"`
}

type districtsRequest struct {
	Districts []string `json:"districts" validate:"max=200,dive,max=100"`
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(platformshared.PermMasterDataView))
		r.Get("/states", h.states)
		r.Post("/districts", h.districts)
		r.Post("/talukas", h.talukas)
		r.Post("/cities", h.cities)
	})
}

func (h *Handler) states(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.States(r.Context())
	if err != nil {
		shared.Fail(h.logger, w, "list states failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) districts(w http.ResponseWriter, r *http.Request) {
	var req statesRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	out, err := h.service.Districts(r.Context(), req.States)
	if err != nil {
		shared.Fail(h.logger, w, "list districts failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) talukas(w http.ResponseWriter, r *http.Request) {
	var req districtsRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	out, err := h.service.Talukas(r.Context(), req.Districts)
	if err != nil {
		shared.Fail(h.logger, w, "list talukas failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) cities(w http.ResponseWriter, r *http.Request) {
	var req statesRequest
	if !validation.Bind(w, r, h.validate, &req) {
		return
	}
	out, err := h.service.Cities(r.Context(), req.States)
	if err != nil {
		shared.Fail(h.logger, w, "list cities failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
