package model

import (
	"github.com/shopspring/decimal"

	"github.com/solutions-liquify/tms/reconcile"
)

// DeliveryChallan is one dispatch against a delivery order.
type DeliveryChallan struct {
	ID                        string          `json:"id"`
	DeliveryOrderID           string          `json:"deliveryOrderId" validate:"required,uuid"`
	ContractID                string          `json:"contractId"`
	DateOfChallan             *int64          `json:"dateOfChallan"`
	Status                    Status          `json:"status"`
	PartyName                 string          `json:"partyName"`
	TransportationCompanyID   *string         `json:"transportationCompanyId" validate:"omitempty,uuid"`
	TransportationCompanyName string          `json:"transportationCompanyName"`
	VehicleID                 *string         `json:"vehicleId" validate:"omitempty,uuid"`
	VehicleNumber             string          `json:"vehicleNumber"`
	DriverID                  *string         `json:"driverId" validate:"omitempty,uuid"`
	DriverName                string          `json:"driverName"`
	TotalDeliveringQuantity   decimal.Decimal `json:"totalDeliveringQuantity"`
	CreatedAt                 int64           `json:"createdAt"`
	UpdatedAt                 int64           `json:"updatedAt"`
	Items                     []ChallanItem   `json:"deliveryChallanItems" validate:"dive"`
}

// ChallanItem is a challan line. Descriptive fields mirror the referenced
// order item; only DeliveringQuantity is owned by the challan.
type ChallanItem struct {
	ID                  string          `json:"id"`
	DeliveryChallanID   string          `json:"deliveryChallanId"`
	DeliveryOrderItemID string          `json:"deliveryOrderItemId" validate:"required,uuid"`
	District            string          `json:"district"`
	Taluka              string          `json:"taluka"`
	LocationName        string          `json:"locationName"`
	MaterialName        string          `json:"materialName"`
	Rate                decimal.Decimal `json:"rate"`
	DueDate             *int64          `json:"dueDate"`
	Quantity            decimal.Decimal `json:"quantity"`
	DeliveredQuantity   decimal.Decimal `json:"deliveredQuantity"`
	InProgressQuantity  decimal.Decimal `json:"inProgressQuantity"`
	DeliveringQuantity  decimal.Decimal `json:"deliveringQuantity" validate:"decgte0"`
	IndexOrder          int             `json:"indexOrder"`
}

// ChallanBucket returns the order item quantity a challan in status s
// occupies. Cancelled challans occupy none.
func ChallanBucket(s Status) (reconcile.Bucket, bool) {
	switch s {
	case StatusPending:
		return reconcile.InProgress, true
	case StatusDelivered:
		return reconcile.Delivered, true
	default:
		return 0, false
	}
}

// Entries returns the challan's contribution to its order items.
func (c *DeliveryChallan) Entries() []reconcile.Entry {
	bucket, ok := ChallanBucket(c.Status)
	if !ok {
		return nil
	}
	entries := make([]reconcile.Entry, 0, len(c.Items))
	for _, it := range c.Items {
		entries = append(entries, reconcile.Entry{
			ItemID:   it.DeliveryOrderItemID,
			Quantity: it.DeliveringQuantity,
			Bucket:   bucket,
		})
	}
	return entries
}

// Recalculate refreshes totals and back references.
func (c *DeliveryChallan) Recalculate() {
	quantities := make([]decimal.Decimal, 0, len(c.Items))
	for i := range c.Items {
		c.Items[i].DeliveryChallanID = c.ID
		c.Items[i].IndexOrder = i
		quantities = append(quantities, c.Items[i].DeliveringQuantity)
	}
	c.TotalDeliveringQuantity = reconcile.SumDecimals(quantities)
}

// Describe copies the descriptive fields of an order item onto the line.
func (it *ChallanItem) Describe(src Item) {
	it.District = src.District
	it.Taluka = src.Taluka
	it.LocationName = src.LocationName
	it.MaterialName = src.MaterialName
	it.Rate = src.Rate
	it.DueDate = src.DueDate
	it.Quantity = src.Quantity
	it.DeliveredQuantity = src.DeliveredQuantity
	it.InProgressQuantity = src.InProgressQuantity
}

// ChallanRecord is the denormalised challan list row.
type ChallanRecord struct {
	ID                        string          `json:"id"`
	DeliveryOrderID           string          `json:"deliveryOrderId"`
	ContractID                string          `json:"contractId"`
	PartyName                 string          `json:"partyName"`
	DateOfChallan             *int64          `json:"dateOfChallan"`
	Status                    Status          `json:"status"`
	TransportationCompanyName string          `json:"transportationCompanyName"`
	VehicleNumber             string          `json:"vehicleNumber"`
	TotalDeliveringQuantity   decimal.Decimal `json:"totalDeliveringQuantity"`
}

// ChallanListRequest filters delivery challan listings. FromDate and ToDate
// bound the challan date.
type ChallanListRequest struct {
	Search                   string   `json:"search" validate:"max=200"`
	DeliveryOrderIDs         []string `json:"deliveryOrderIds" validate:"omitempty,dive,uuid"`
	PartyIDs                 []string `json:"partyIds" validate:"omitempty,dive,uuid"`
	TransportationCompanyIDs []string `json:"transportationCompanyIds" validate:"omitempty,dive,uuid"`
	Statuses                 []Status `json:"statuses" validate:"omitempty,dive,oneof=pending delivered cancelled"`
	FromDate                 *int64   `json:"fromDate"`
	ToDate                   *int64   `json:"toDate"`
	Page                     int      `json:"page" validate:"gte=0"`
	Size                     int      `json:"size" validate:"gte=0,lte=100"`
}

// OrderWithChallan is the result of saving an order and opening a challan
// in one step.
type OrderWithChallan struct {
	DeliveryOrder   *DeliveryOrder   `json:"deliveryOrder"`
	DeliveryChallan *DeliveryChallan `json:"deliveryChallan"`
}
