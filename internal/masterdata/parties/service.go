// Package parties manages the customers delivery orders are raised for.
package parties

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/rbac"
)

// Party is a customer record.
type Party = shared.Contact

// ListRequest filters party listings.
type ListRequest = shared.ContactListRequest

// Service provides party business logic.
type Service struct {
	*shared.ContactService
}

// NewService creates a party service.
func NewService(repo shared.ContactRepository, logger *slog.Logger) *Service {
	return &Service{ContactService: shared.NewContactService(repo, logger, "party", nil)}
}

// Table is the parties table name.
const Table = "parties"

// NewHandler creates the party HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *shared.ContactHandler {
	return shared.NewContactHandler(logger, service.ContactService, validate, rbac)
}
