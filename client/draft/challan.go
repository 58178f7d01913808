package draft

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/solutions-liquify/tms/model"
)

// ErrNoCapacity is returned when selecting an order item with nothing left
// to deliver. The server re-validates on save.
var ErrNoCapacity = errors.New("draft: order item has no remaining quantity")

// ApplyChallanChange sets the field at path and recomputes the challan total.
//
// Paths: dateOfChallan, transportationCompanyId, vehicleId, driverId and
// deliveryChallanItems[i].deliveringQuantity. Changing the company clears
// the vehicle and driver, which belong to the previous company.
func ApplyChallanChange(challan model.DeliveryChallan, path string, value any) (model.DeliveryChallan, error) {
	segs, err := parsePath(path)
	if err != nil {
		return challan, err
	}
	next := CloneChallan(challan)
	if err := setChallanField(&next, segs, value); err != nil {
		return challan, fmt.Errorf("%s: %w", path, err)
	}
	next.Recalculate()
	return next, nil
}

func setChallanField(c *model.DeliveryChallan, segs []segment, value any) error {
	head := segs[0]
	if len(segs) == 1 && head.index < 0 {
		var err error
		switch head.name {
		case "dateOfChallan":
			c.DateOfChallan, err = toUnix(value)
		case "transportationCompanyId":
			var id *string
			id, err = toOptionalID(value)
			if err == nil && !sameID(id, c.TransportationCompanyID) {
				c.TransportationCompanyID = id
				c.TransportationCompanyName = ""
				c.VehicleID, c.VehicleNumber = nil, ""
				c.DriverID, c.DriverName = nil, ""
			}
		case "vehicleId":
			c.VehicleID, err = toOptionalID(value)
		case "driverId":
			c.DriverID, err = toOptionalID(value)
		default:
			return ErrUnknownPath
		}
		return err
	}
	if head.name != "deliveryChallanItems" || head.index < 0 || len(segs) != 2 || segs[1].index >= 0 {
		return ErrUnknownPath
	}
	if err := checkIndex(head.index, len(c.Items)); err != nil {
		return err
	}
	if segs[1].name != "deliveringQuantity" {
		return ErrUnknownPath
	}
	q, err := toDecimal(value)
	if err != nil {
		return err
	}
	if q.IsNegative() {
		return fmt.Errorf("%w: delivering quantity must not be negative", ErrInvalidValue)
	}
	c.Items[head.index].DeliveringQuantity = q
	return nil
}

// ToggleChallanItem adds the order item to the challan, or removes it when
// already selected. A new line copies the item's descriptive fields and
// starts at zero delivering quantity.
func ToggleChallanItem(challan model.DeliveryChallan, item model.Item) (model.DeliveryChallan, error) {
	next := CloneChallan(challan)
	for i, line := range next.Items {
		if line.DeliveryOrderItemID == item.ID {
			next.Items = append(next.Items[:i], next.Items[i+1:]...)
			next.Recalculate()
			return next, nil
		}
	}
	if !available(challan, item).IsPositive() {
		return challan, ErrNoCapacity
	}
	line := model.ChallanItem{DeliveryOrderItemID: item.ID, DeliveringQuantity: decimal.Zero}
	line.Describe(item)
	next.Items = append(next.Items, line)
	next.Recalculate()
	return next, nil
}

// available is the item's pending quantity plus what this challan already
// holds on it, since saving the challan releases its own previous lines.
func available(challan model.DeliveryChallan, item model.Item) decimal.Decimal {
	pending := item.Line().Pending()
	if challan.ID == "" || challan.Status != model.StatusPending {
		return pending
	}
	for _, held := range item.AssociatedChallanItems {
		if held.DeliveryChallanID == challan.ID && held.Status == model.StatusPending {
			pending = pending.Add(held.DeliveringQuantity)
		}
	}
	return pending
}

// CloneChallan deep-copies the challan.
func CloneChallan(c model.DeliveryChallan) model.DeliveryChallan {
	out := c
	out.DateOfChallan = cloneInt64(c.DateOfChallan)
	out.TransportationCompanyID = cloneString(c.TransportationCompanyID)
	out.VehicleID = cloneString(c.VehicleID)
	out.DriverID = cloneString(c.DriverID)
	out.Items = make([]model.ChallanItem, len(c.Items))
	for i, it := range c.Items {
		ci := it
		ci.DueDate = cloneInt64(it.DueDate)
		out.Items[i] = ci
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
