package challans

import (
	"github.com/solutions-liquify/tms/model"
	"github.com/solutions-liquify/tms/reconcile"
)

// Status aliases the shared lifecycle values.
type Status = reconcile.Status

const (
	StatusPending   = reconcile.StatusPending
	StatusDelivered = reconcile.StatusDelivered
	StatusCancelled = reconcile.StatusCancelled
)

// canEdit checks if a challan can be saved in this status
func canEdit(s Status) bool {
	return s == StatusPending
}

// canDeliver checks if a challan can be marked delivered
func canDeliver(s Status) bool {
	return s == StatusPending
}

// canCancel checks if a challan can be cancelled
func canCancel(s Status) bool {
	return s == StatusPending || s == StatusDelivered
}

// The challan documents are public so the client SDK can share them.
type (
	DeliveryChallan  = model.DeliveryChallan
	Item             = model.ChallanItem
	Record           = model.ChallanRecord
	OrderWithChallan = model.OrderWithChallan
)

// TransportRef is the transportation company data a challan save needs.
type TransportRef struct {
	ID         string
	Name       string
	Active     bool
	VehicleIDs []string
	DriverIDs  []string
}

func (t *TransportRef) hasVehicle(id string) bool {
	for _, v := range t.VehicleIDs {
		if v == id {
			return true
		}
	}
	return false
}

func (t *TransportRef) hasDriver(id string) bool {
	for _, d := range t.DriverIDs {
		if d == id {
			return true
		}
	}
	return false
}
