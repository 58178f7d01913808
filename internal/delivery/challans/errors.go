package challans

import (
	"errors"
	"fmt"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// Domain errors for delivery challans.
var (
	// ErrNotFound indicates the requested delivery challan was not found.
	ErrNotFound = fmt.Errorf("%w: delivery challan", httpx.ErrNotFound)

	// Status transition errors.
	ErrCannotEdit     = fmt.Errorf("%w: only pending challans can be edited", httpx.ErrConflict)
	ErrCannotDeliver  = fmt.Errorf("%w: only pending challans can be marked delivered", httpx.ErrConflict)
	ErrCannotCancel   = fmt.Errorf("%w: delivery challan is already cancelled", httpx.ErrConflict)
	ErrOrderCancelled = fmt.Errorf("%w: delivery order is cancelled", httpx.ErrConflict)

	// Validation errors.
	ErrMissingID         = fmt.Errorf("%w: id is required", httpx.ErrValidation)
	ErrOrderImmutable    = fmt.Errorf("%w: deliveryOrderId cannot change", httpx.ErrValidation)
	ErrForeignItem       = fmt.Errorf("%w: item does not belong to the delivery order", httpx.ErrValidation)
	ErrDuplicateItem     = fmt.Errorf("%w: order item selected more than once", httpx.ErrValidation)
	ErrNegativeQuantity  = fmt.Errorf("%w: deliveringQuantity cannot be negative", httpx.ErrValidation)
	ErrTransportRequired = fmt.Errorf("%w: vehicle and driver need a transportation company", httpx.ErrValidation)
	ErrTransportNotFound = fmt.Errorf("%w: transportation company not found", httpx.ErrValidation)
	ErrTransportInactive = fmt.Errorf("%w: transportation company is inactive", httpx.ErrValidation)
	ErrVehicleMismatch   = fmt.Errorf("%w: vehicle does not belong to the transportation company", httpx.ErrValidation)
	ErrDriverMismatch    = fmt.Errorf("%w: driver does not belong to the transportation company", httpx.ErrValidation)
	ErrInvalidDateRange  = fmt.Errorf("%w: fromDate must not be after toDate", httpx.ErrValidation)
	ErrUnknownReference  = fmt.Errorf("%w: unknown order item or transport reference", httpx.ErrValidation)

	// Business rule errors.
	ErrCapacityExceeded = fmt.Errorf("%w: delivering quantity exceeds remaining order quantity", httpx.ErrConflict)
	ErrDuplicateRequest = fmt.Errorf("%w: request already processed", httpx.ErrDuplicate)
)

// IsNotFound reports whether err is a missing delivery challan.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
