package orders

import (
	"github.com/solutions-liquify/tms/model"
	"github.com/solutions-liquify/tms/reconcile"
)

// Status aliases the shared lifecycle values.
type Status = reconcile.Status

const (
	StatusPending   = reconcile.StatusPending
	StatusDelivered = reconcile.StatusDelivered
	StatusOverdue   = reconcile.StatusOverdue
	StatusCancelled = reconcile.StatusCancelled
)

// The order documents are public so the client SDK can share them.
type (
	DeliveryOrder         = model.DeliveryOrder
	Section               = model.Section
	Item                  = model.Item
	AssociatedChallanItem = model.AssociatedChallanItem
	Record                = model.OrderRecord
	ItemMetadata          = model.ItemMetadata
	PendingItem           = model.PendingItem
)

// PartyRef is the party data an order needs.
type PartyRef struct {
	ID     string
	Name   string
	Active bool
}
