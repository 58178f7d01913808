// Package model holds the JSON documents exchanged with the TMS API. The
// server and the client SDK share these types; derived fields are always
// recomputed through the reconcile package.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/solutions-liquify/tms/reconcile"
)

// Status is the lifecycle value of orders, sections, items and challans.
type Status = reconcile.Status

const (
	StatusPending   = reconcile.StatusPending
	StatusDelivered = reconcile.StatusDelivered
	StatusOverdue   = reconcile.StatusOverdue
	StatusCancelled = reconcile.StatusCancelled
)

// DeliveryOrder is a party's contract broken into district sections.
// Totals and statuses are derived; Recalculate must run after any change to
// the item tree.
type DeliveryOrder struct {
	ID                           string          `json:"id"`
	ContractID                   string          `json:"contractId" validate:"required,max=100"`
	PartyID                      string          `json:"partyId" validate:"required,uuid"`
	PartyName                    string          `json:"partyName"`
	DateOfContract               *int64          `json:"dateOfContract"`
	Status                       Status          `json:"status"`
	GrandTotalQuantity           decimal.Decimal `json:"grandTotalQuantity"`
	GrandTotalPendingQuantity    decimal.Decimal `json:"grandTotalPendingQuantity"`
	GrandTotalInProgressQuantity decimal.Decimal `json:"grandTotalInProgressQuantity"`
	GrandTotalDeliveredQuantity  decimal.Decimal `json:"grandTotalDeliveredQuantity"`
	CreatedAt                    int64           `json:"createdAt"`
	UpdatedAt                    int64           `json:"updatedAt"`
	Sections                     []Section       `json:"deliveryOrderSections" validate:"required,min=1,dive"`
}

// Section groups the items of one district.
type Section struct {
	ID                      string          `json:"id"`
	DeliveryOrderID         string          `json:"deliveryOrderId"`
	District                string          `json:"district" validate:"required,max=100"`
	TotalQuantity           decimal.Decimal `json:"totalQuantity"`
	TotalPendingQuantity    decimal.Decimal `json:"totalPendingQuantity"`
	TotalInProgressQuantity decimal.Decimal `json:"totalInProgressQuantity"`
	TotalDeliveredQuantity  decimal.Decimal `json:"totalDeliveredQuantity"`
	Status                  Status          `json:"status"`
	IndexOrder              int             `json:"indexOrder"`
	Items                   []Item          `json:"deliveryOrderItems" validate:"required,min=1,dive"`
}

// Item is the unit of demand.
type Item struct {
	ID                     string                  `json:"id"`
	DeliveryOrderID        string                  `json:"deliveryOrderId"`
	DeliveryOrderSectionID string                  `json:"deliveryOrderSectionId"`
	District               string                  `json:"district"`
	Taluka                 string                  `json:"taluka" validate:"required,max=100"`
	LocationID             string                  `json:"locationId" validate:"required,uuid"`
	MaterialID             string                  `json:"materialId" validate:"required,uuid"`
	LocationName           string                  `json:"locationName"`
	MaterialName           string                  `json:"materialName"`
	Quantity               decimal.Decimal         `json:"quantity" validate:"decgt0"`
	PendingQuantity        decimal.Decimal         `json:"pendingQuantity"`
	DeliveredQuantity      decimal.Decimal         `json:"deliveredQuantity"`
	InProgressQuantity     decimal.Decimal         `json:"inProgressQuantity"`
	Rate                   decimal.Decimal         `json:"rate" validate:"decgte0"`
	DueDate                *int64                  `json:"dueDate"`
	Status                 Status                  `json:"status"`
	IndexOrder             int                     `json:"indexOrder"`
	AssociatedChallanItems []AssociatedChallanItem `json:"associatedDeliveryChallanItems"`
}

// AssociatedChallanItem is a challan line referencing an order item.
type AssociatedChallanItem struct {
	ID                 string          `json:"id"`
	DeliveryChallanID  string          `json:"deliveryChallanId"`
	DeliveringQuantity decimal.Decimal `json:"deliveringQuantity"`
	Status             Status          `json:"status"`
}

// Line returns the quantity state used by the reconciliation model.
func (i Item) Line() reconcile.Line {
	return reconcile.Line{
		Quantity:   i.Quantity,
		Delivered:  i.DeliveredQuantity,
		InProgress: i.InProgressQuantity,
	}
}

// SetLine copies reconciled quantities back onto the item.
func (i *Item) SetLine(l reconcile.Line) {
	i.DeliveredQuantity = l.Delivered
	i.InProgressQuantity = l.InProgress
}

// Lines lists the quantity state of every item in tree order.
func (o *DeliveryOrder) Lines() []reconcile.Line {
	var lines []reconcile.Line
	for _, s := range o.Sections {
		for _, it := range s.Items {
			lines = append(lines, it.Line())
		}
	}
	return lines
}

// ItemByID finds an item anywhere in the tree.
func (o *DeliveryOrder) ItemByID(id string) (*Item, bool) {
	for si := range o.Sections {
		for ii := range o.Sections[si].Items {
			if o.Sections[si].Items[ii].ID == id {
				return &o.Sections[si].Items[ii], true
			}
		}
	}
	return nil, false
}

// Recalculate re-derives every total and status bottom-up from the items.
// Back references and index orders are normalised at the same time.
func (o *DeliveryOrder) Recalculate(now time.Time) {
	grand := reconcile.Sum(nil)
	for si := range o.Sections {
		s := &o.Sections[si]
		s.DeliveryOrderID = o.ID
		s.IndexOrder = si

		lines := make([]reconcile.Line, 0, len(s.Items))
		statuses := make([]Status, 0, len(s.Items))
		for ii := range s.Items {
			it := &s.Items[ii]
			it.DeliveryOrderID = o.ID
			it.DeliveryOrderSectionID = s.ID
			it.District = s.District
			it.IndexOrder = ii

			line := it.Line()
			it.PendingQuantity = line.Pending()
			it.Status = reconcile.ItemStatus(line, it.DueDate, now)
			lines = append(lines, line)
			statuses = append(statuses, it.Status)
		}

		totals := reconcile.Sum(lines)
		s.TotalQuantity = totals.Quantity
		s.TotalPendingQuantity = totals.Pending
		s.TotalInProgressQuantity = totals.InProgress
		s.TotalDeliveredQuantity = totals.Delivered
		s.Status = reconcile.SectionStatus(statuses)
		grand = grand.Merge(totals)
	}

	o.GrandTotalQuantity = grand.Quantity
	o.GrandTotalPendingQuantity = grand.Pending
	o.GrandTotalInProgressQuantity = grand.InProgress
	o.GrandTotalDeliveredQuantity = grand.Delivered
	o.Status = reconcile.OrderStatus(o.Status, o.Lines())
}

// OrderRecord is the denormalised order list row.
type OrderRecord struct {
	ID                           string          `json:"id"`
	ContractID                   string          `json:"contractId"`
	PartyID                      string          `json:"partyId"`
	PartyName                    string          `json:"partyName"`
	Status                       Status          `json:"status"`
	GrandTotalQuantity           decimal.Decimal `json:"grandTotalQuantity"`
	GrandTotalDeliveredQuantity  decimal.Decimal `json:"grandTotalDeliveredQuantity"`
	GrandTotalInProgressQuantity decimal.Decimal `json:"grandTotalInProgressQuantity"`
	DateOfContract               *int64          `json:"dateOfContract"`
}

// ItemMetadata feeds the challan item picker.
type ItemMetadata struct {
	ID                 string          `json:"id"`
	District           string          `json:"district"`
	Taluka             string          `json:"taluka"`
	LocationName       string          `json:"locationName"`
	MaterialName       string          `json:"materialName"`
	Quantity           decimal.Decimal `json:"quantity"`
	Status             Status          `json:"status"`
	Rate               decimal.Decimal `json:"rate"`
	DueDate            *int64          `json:"dueDate"`
	DeliveredQuantity  decimal.Decimal `json:"deliveredQuantity"`
	InProgressQuantity decimal.Decimal `json:"inProgressQuantity"`
	PendingQuantity    decimal.Decimal `json:"pendingQuantity"`
}

// PendingItem is a dashboard row for an item that is not fully delivered.
type PendingItem struct {
	ItemMetadata
	DeliveryOrderID string `json:"deliveryOrderId"`
	ContractID      string `json:"contractId"`
	PartyName       string `json:"partyName"`
}

// OrderListRequest filters delivery order listings. FromDate and ToDate
// bound item due dates.
type OrderListRequest struct {
	Search   string   `json:"search" validate:"max=200"`
	PartyIDs []string `json:"partyIds" validate:"omitempty,dive,uuid"`
	Statuses []Status `json:"statuses" validate:"omitempty,dive,oneof=pending delivered cancelled"`
	FromDate *int64   `json:"fromDate"`
	ToDate   *int64   `json:"toDate"`
	Page     int      `json:"page" validate:"gte=0"`
	Size     int      `json:"size" validate:"gte=0,lte=100"`

	// IDs restricts results to search hits. The server sets it; it is never
	// read from a request body.
	IDs []string `json:"-"`
}

// PendingItemsRequest pages the pending item dashboard.
type PendingItemsRequest struct {
	Page int `json:"page" validate:"gte=0"`
	Size int `json:"size" validate:"gte=0,lte=100"`
}
