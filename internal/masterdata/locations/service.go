// Package locations manages the godowns delivery order items are dispatched to.
package locations

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/rbac"
)

// Table is the locations table name.
const Table = "locations"

var (
	ErrDistrictRequired = fmt.Errorf("%w: location district is required", httpx.ErrValidation)
	ErrTalukaRequired   = fmt.Errorf("%w: location taluka is required", httpx.ErrValidation)
)

// Location is a godown record.
type Location = shared.Contact

// ListRequest filters location listings.
type ListRequest = shared.ContactListRequest

// Service provides location business logic.
type Service struct {
	*shared.ContactService
}

// NewService creates a location service.
func NewService(repo shared.ContactRepository, logger *slog.Logger) *Service {
	return &Service{ContactService: shared.NewContactService(repo, logger, "location", check)}
}

// NewHandler creates the location HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *shared.ContactHandler {
	return shared.NewContactHandler(logger, service.ContactService, validate, rbac)
}

func check(l *Location) error {
	if l.District == "" {
		return ErrDistrictRequired
	}
	if l.Taluka == "" {
		return ErrTalukaRequired
	}
	return nil
}
