package reconcile

import "time"

// Status is the lifecycle value shared by items, sections, orders and challans.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// ItemStatus derives an item's status from its quantities and due date.
// A fully delivered item is delivered whatever its due date.
func ItemStatus(l Line, dueDate *int64, now time.Time) Status {
	if l.IsDelivered() {
		return StatusDelivered
	}
	if dueDate != nil && *dueDate < now.Unix() {
		return StatusOverdue
	}
	return StatusPending
}

// SectionStatus rolls item statuses up: delivered only when every item is,
// overdue when any item is late, pending otherwise.
func SectionStatus(items []Status) Status {
	if len(items) == 0 {
		return StatusPending
	}
	delivered := true
	for _, s := range items {
		if s == StatusOverdue {
			return StatusOverdue
		}
		if s != StatusDelivered {
			delivered = false
		}
	}
	if delivered {
		return StatusDelivered
	}
	return StatusPending
}

// OrderStatus recomputes the stored order status after a quantity change.
// Cancellation is an explicit business event and is kept as is.
func OrderStatus(current Status, lines []Line) Status {
	if current == StatusCancelled {
		return StatusCancelled
	}
	if len(lines) == 0 {
		return StatusPending
	}
	for _, l := range lines {
		if !l.IsDelivered() {
			return StatusPending
		}
	}
	return StatusDelivered
}
