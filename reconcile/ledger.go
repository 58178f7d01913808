package reconcile

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrCapacityExceeded is returned when delivered plus in-progress would exceed the ordered quantity.
	ErrCapacityExceeded = errors.New("quantity exceeds remaining capacity")
	// ErrNegativeQuantity is returned when a bucket would drop below zero.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	// ErrUnknownItem is returned for entries whose order item is not loaded in the ledger.
	ErrUnknownItem = errors.New("unknown delivery order item")
)

// Bucket selects which item quantity an entry moves.
type Bucket int

const (
	InProgress Bucket = iota
	Delivered
)

func (b Bucket) String() string {
	if b == Delivered {
		return "delivered"
	}
	return "in_progress"
}

// Entry is one challan item's contribution to one order item.
type Entry struct {
	ItemID   string
	Quantity decimal.Decimal
	Bucket   Bucket
}

// CapacityError describes the first item that violates an invariant.
type CapacityError struct {
	ItemID    string
	Quantity  decimal.Decimal
	Committed decimal.Decimal
	Err       error
}

func (e *CapacityError) Error() string {
	if errors.Is(e.Err, ErrNegativeQuantity) {
		return fmt.Sprintf("order item %s: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("order item %s: committed %s exceeds quantity %s", e.ItemID, e.Committed, e.Quantity)
}

func (e *CapacityError) Unwrap() error { return e.Err }

// Ledger applies and reverses challan contributions on a working copy of the
// order item quantities. Nothing is persisted until Check passes.
type Ledger struct {
	lines   map[string]Line
	touched []string
	seen    map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{lines: make(map[string]Line), seen: make(map[string]struct{})}
}

// Set loads the current state of an order item.
func (l *Ledger) Set(itemID string, line Line) {
	l.lines[itemID] = line
}

// Line returns the working state of an order item.
func (l *Ledger) Line(itemID string) (Line, bool) {
	line, ok := l.lines[itemID]
	return line, ok
}

// Touched lists the items changed by Apply, Reverse or Move in first-touch order.
func (l *Ledger) Touched() []string {
	out := make([]string, len(l.touched))
	copy(out, l.touched)
	return out
}

// Apply adds an entry's quantity to its bucket.
func (l *Ledger) Apply(e Entry) error {
	return l.shift(e.ItemID, e.Bucket, e.Quantity)
}

// Reverse removes an entry's quantity from its bucket. Apply followed by
// Reverse of the same entry restores the prior line exactly.
func (l *Ledger) Reverse(e Entry) error {
	return l.shift(e.ItemID, e.Bucket, e.Quantity.Neg())
}

// Move transfers quantity between buckets, e.g. in-progress to delivered.
func (l *Ledger) Move(itemID string, qty decimal.Decimal, from, to Bucket) error {
	if err := l.shift(itemID, from, qty.Neg()); err != nil {
		return err
	}
	return l.shift(itemID, to, qty)
}

func (l *Ledger) shift(itemID string, b Bucket, delta decimal.Decimal) error {
	line, ok := l.lines[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	switch b {
	case Delivered:
		line.Delivered = line.Delivered.Add(delta)
	default:
		line.InProgress = line.InProgress.Add(delta)
	}
	l.lines[itemID] = line
	if _, ok := l.seen[itemID]; !ok {
		l.seen[itemID] = struct{}{}
		l.touched = append(l.touched, itemID)
	}
	return nil
}

// Check validates every touched item against the capacity invariant
// 0 <= delivered, 0 <= inProgress, delivered + inProgress <= quantity.
func (l *Ledger) Check() error {
	for _, id := range l.touched {
		line := l.lines[id]
		if line.Delivered.IsNegative() || line.InProgress.IsNegative() {
			return &CapacityError{ItemID: id, Quantity: line.Quantity, Committed: line.Committed(), Err: ErrNegativeQuantity}
		}
		if line.Committed().GreaterThan(line.Quantity) {
			return &CapacityError{ItemID: id, Quantity: line.Quantity, Committed: line.Committed(), Err: ErrCapacityExceeded}
		}
	}
	return nil
}
