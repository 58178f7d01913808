// Package reconcile holds the quantity model shared by delivery orders,
// delivery challans and the client draft reducers. Everything here is pure:
// totals are always recomputed from the authoritative item list, never
// patched in place.
package reconcile

import "github.com/shopspring/decimal"

// Line is the quantity state of a single delivery order item.
type Line struct {
	Quantity   decimal.Decimal
	Delivered  decimal.Decimal
	InProgress decimal.Decimal
}

// Committed is the amount already delivered or on an active challan.
func (l Line) Committed() decimal.Decimal {
	return l.Delivered.Add(l.InProgress)
}

// Pending is the amount still free for new challans, floored at zero.
func (l Line) Pending() decimal.Decimal {
	p := l.Quantity.Sub(l.Committed())
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// IsDelivered reports whether the ordered quantity has been delivered in full.
func (l Line) IsDelivered() bool {
	return l.Delivered.GreaterThanOrEqual(l.Quantity)
}

// Totals aggregates lines at section or order level.
type Totals struct {
	Quantity   decimal.Decimal
	Delivered  decimal.Decimal
	InProgress decimal.Decimal
	Pending    decimal.Decimal
}

// Add folds one line into the totals.
func (t Totals) Add(l Line) Totals {
	return Totals{
		Quantity:   t.Quantity.Add(l.Quantity),
		Delivered:  t.Delivered.Add(l.Delivered),
		InProgress: t.InProgress.Add(l.InProgress),
		Pending:    t.Pending.Add(l.Pending()),
	}
}

// Merge combines two totals, used to roll sections up into an order.
func (t Totals) Merge(o Totals) Totals {
	return Totals{
		Quantity:   t.Quantity.Add(o.Quantity),
		Delivered:  t.Delivered.Add(o.Delivered),
		InProgress: t.InProgress.Add(o.InProgress),
		Pending:    t.Pending.Add(o.Pending),
	}
}

// Sum is the single aggregation function for a list of lines.
func Sum(lines []Line) Totals {
	t := Totals{
		Quantity:   decimal.Zero,
		Delivered:  decimal.Zero,
		InProgress: decimal.Zero,
		Pending:    decimal.Zero,
	}
	for _, l := range lines {
		t = t.Add(l)
	}
	return t
}

// SumDecimals folds plain amounts, e.g. challan delivering quantities.
func SumDecimals(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
