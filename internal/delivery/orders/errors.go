package orders

import (
	"errors"
	"fmt"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// Domain errors for delivery orders.
var (
	// ErrNotFound indicates the requested delivery order was not found.
	ErrNotFound = fmt.Errorf("%w: delivery order", httpx.ErrNotFound)

	// Status transition errors.
	ErrCannotEdit   = fmt.Errorf("%w: cancelled delivery order cannot be edited", httpx.ErrConflict)
	ErrCannotCancel = fmt.Errorf("%w: delivery order has active challans", httpx.ErrConflict)

	// Validation errors.
	ErrEmptySections     = fmt.Errorf("%w: at least one section is required", httpx.ErrValidation)
	ErrEmptySection      = fmt.Errorf("%w: section must contain at least one item", httpx.ErrValidation)
	ErrDistrictRequired  = fmt.Errorf("%w: district is required", httpx.ErrValidation)
	ErrDuplicateDistrict = fmt.Errorf("%w: district already used by another section", httpx.ErrValidation)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than zero", httpx.ErrValidation)
	ErrInvalidRate       = fmt.Errorf("%w: rate cannot be negative", httpx.ErrValidation)
	ErrItemNotFound      = fmt.Errorf("%w: item does not belong to this delivery order", httpx.ErrValidation)
	ErrSectionNotFound   = fmt.Errorf("%w: section does not belong to this delivery order", httpx.ErrValidation)
	ErrDuplicateSection  = fmt.Errorf("%w: section appears more than once", httpx.ErrValidation)
	ErrDuplicateItem     = fmt.Errorf("%w: item appears more than once", httpx.ErrValidation)
	ErrPartyNotFound     = fmt.Errorf("%w: party not found", httpx.ErrValidation)
	ErrPartyInactive     = fmt.Errorf("%w: party is inactive", httpx.ErrValidation)
	ErrUnknownReference  = fmt.Errorf("%w: unknown location or material", httpx.ErrValidation)
	ErrInactiveReference = fmt.Errorf("%w: location or material is inactive", httpx.ErrValidation)
	ErrMissingID         = fmt.Errorf("%w: id is required", httpx.ErrValidation)
	ErrInvalidDateRange  = fmt.Errorf("%w: fromDate must not be after toDate", httpx.ErrValidation)

	// Business rule errors.
	ErrQuantityBelowCommitted = fmt.Errorf("%w: quantity below delivered and in-progress quantity", httpx.ErrConflict)
	ErrItemInUse              = fmt.Errorf("%w: item is referenced by a delivery challan", httpx.ErrConflict)
	ErrDistrictLocked         = fmt.Errorf("%w: district cannot change once the section has items", httpx.ErrConflict)
)

// IsNotFound reports whether err is a missing delivery order.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
