package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/solutions-liquify/tms/internal/auth"
	"github.com/solutions-liquify/tms/internal/delivery"
	"github.com/solutions-liquify/tms/internal/files"
	"github.com/solutions-liquify/tms/internal/masterdata/employees"
	"github.com/solutions-liquify/tms/internal/masterdata/geo"
	"github.com/solutions-liquify/tms/internal/masterdata/materials"
	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/masterdata/transport"
	"github.com/solutions-liquify/tms/internal/observability"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/rbac"
	"github.com/solutions-liquify/tms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AuthHandler *auth.Handler
	AuthTokens  *auth.Tokens

	Delivery delivery.Deps

	PartiesHandler     *shared.ContactHandler
	LocationsHandler   *shared.ContactHandler
	MaterialsHandler   *materials.Handler
	EmployeesHandler   *employees.Handler
	TransportHandler   *transport.Handler
	GeoHandler         *geo.Handler
	FilesHandler       *files.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with TMS defaults. The returned
// services are the delivery services built while mounting the routes.
func NewRouter(params RouterParams) (http.Handler, delivery.Services) {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}
	r.Route("/auth", params.AuthHandler.MountRoutes)

	var svc delivery.Services
	r.Group(func(r chi.Router) {
		r.Use(auth.Bearer(params.AuthTokens))

		svc = delivery.MountRoutes(r, params.Delivery)
		mount(r, "/parties", params.PartiesHandler)
		mount(r, "/locations", params.LocationsHandler)
		mount(r, "/materials", params.MaterialsHandler)
		mount(r, "/employees", params.EmployeesHandler)
		mount(r, "/transportation-companies", params.TransportHandler)
		mount(r, "/geo", params.GeoHandler)
		mount(r, "/files", params.FilesHandler)
		mount(r, "/permissions", params.PermissionsHandler)
		mount(r, "/jobs", params.JobHandler)
	})

	return r, svc
}

type routeMounter interface {
	MountRoutes(chi.Router)
}

func mount[T routeMounter](r chi.Router, pattern string, h T) {
	var zero T
	if any(h) == any(zero) {
		return
	}
	r.Route(pattern, h.MountRoutes)
}
