package challans

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
)

// ValidateItems checks the rules a challan body must satisfy on its own.
func ValidateItems(items []Item) error {
	seen := make(map[string]int, len(items))
	for i, it := range items {
		if prev, ok := seen[it.DeliveryOrderItemID]; ok {
			return fmt.Errorf("items %d and %d: %w", prev+1, i+1, ErrDuplicateItem)
		}
		seen[it.DeliveryOrderItemID] = i
		if it.DeliveringQuantity.IsNegative() {
			return fmt.Errorf("item %d: %w", i+1, ErrNegativeQuantity)
		}
	}
	return nil
}

// ValidateAgainstOrder checks that every challan item points at an item of
// the given order.
func ValidateAgainstOrder(items []Item, order *orders.DeliveryOrder) error {
	for i, it := range items {
		if _, ok := order.ItemByID(it.DeliveryOrderItemID); !ok {
			return fmt.Errorf("item %d: %w", i+1, ErrForeignItem)
		}
	}
	return nil
}

// ValidateTransport checks company, vehicle and driver consistency. ref is
// nil when the challan has no transportation company.
func ValidateTransport(c *DeliveryChallan, ref *TransportRef, held bool) error {
	if ref == nil {
		if c.VehicleID != nil || c.DriverID != nil {
			return ErrTransportRequired
		}
		return nil
	}
	if !ref.Active && !held {
		return ErrTransportInactive
	}
	if c.VehicleID != nil && !ref.hasVehicle(*c.VehicleID) {
		return ErrVehicleMismatch
	}
	if c.DriverID != nil && !ref.hasDriver(*c.DriverID) {
		return ErrDriverMismatch
	}
	return nil
}

// ValidateListRequest checks filter ranges.
func ValidateListRequest(req ListRequest) error {
	if req.FromDate != nil && req.ToDate != nil && *req.FromDate > *req.ToDate {
		return ErrInvalidDateRange
	}
	return nil
}
