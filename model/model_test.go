package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/solutions-liquify/tms/reconcile"
)

func TestChallanEntriesFollowStatus(t *testing.T) {
	c := DeliveryChallan{
		ID: "ch-1",
		Items: []ChallanItem{
			{DeliveryOrderItemID: "i1", DeliveringQuantity: decimal.RequireFromString("4")},
			{DeliveryOrderItemID: "i2", DeliveringQuantity: decimal.RequireFromString("1.5")},
		},
	}

	c.Status = StatusPending
	entries := c.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, reconcile.InProgress, entries[0].Bucket)

	c.Status = StatusDelivered
	assert.Equal(t, reconcile.Delivered, c.Entries()[1].Bucket)

	c.Status = StatusCancelled
	assert.Empty(t, c.Entries())

	c.Recalculate()
	assert.True(t, c.TotalDeliveringQuantity.Equal(decimal.RequireFromString("5.5")))
	assert.Equal(t, "ch-1", c.Items[1].DeliveryChallanID)
	assert.Equal(t, 1, c.Items[1].IndexOrder)
}
