// Package delivery wires the delivery order and delivery challan aggregates
// into the HTTP router.
package delivery

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/delivery/challans"
	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/platform/cache"
	"github.com/solutions-liquify/tms/internal/rbac"
)

// Deps collects what the delivery routes need. Cache, Queue, Searcher and
// Auditor are optional.
type Deps struct {
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	Validate *validator.Validate
	RBAC     rbac.Middleware
	Cache    *cache.Versioned
	Queue    Enqueuer
	Searcher orders.Searcher
	Auditor  orders.Auditor
}

// Services exposes the constructed services for callers outside HTTP.
type Services struct {
	Orders   *orders.Service
	Challans *challans.Service
}

// NewServices builds the order and challan services with their post-commit hooks.
func NewServices(deps Deps) Services {
	notifier := NewNotifier(deps.Cache, deps.Queue, deps.Logger)

	ordersSvc := orders.NewService(orders.NewRepository(deps.Pool), deps.Logger)
	ordersSvc.SetNotifier(notifier)
	if deps.Cache != nil {
		ordersSvc.SetCache(deps.Cache)
	}
	if deps.Searcher != nil {
		ordersSvc.SetSearcher(deps.Searcher)
	}
	if deps.Auditor != nil {
		ordersSvc.SetAuditor(deps.Auditor)
	}

	challansSvc := challans.NewService(challans.NewRepository(deps.Pool), ordersSvc, deps.Logger)
	challansSvc.SetNotifier(notifier)
	if deps.Cache != nil {
		challansSvc.SetCache(deps.Cache)
	}
	if deps.Auditor != nil {
		challansSvc.SetAuditor(deps.Auditor)
	}
	return Services{Orders: ordersSvc, Challans: challansSvc}
}

// MountRoutes wires all delivery domain routes.
func MountRoutes(r chi.Router, deps Deps) Services {
	svc := NewServices(deps)
	ordersHandler := orders.NewHandler(deps.Logger, svc.Orders, deps.Validate, deps.RBAC)
	challansHandler := challans.NewHandler(deps.Logger, svc.Challans, deps.Validate, deps.RBAC)

	r.Route("/delivery-orders", func(r chi.Router) {
		ordersHandler.MountRoutes(r)
		challansHandler.MountOrderRoutes(r)
	})
	r.Route("/delivery-challans", challansHandler.MountRoutes)
	return svc
}
