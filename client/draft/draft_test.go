package draft

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/model"
	"github.com/solutions-liquify/tms/reconcile"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleOrder() model.DeliveryOrder {
	past := now.Add(-48 * time.Hour).Unix()
	o := model.DeliveryOrder{
		ID:         "order-1",
		ContractID: "CT-1",
		Status:     reconcile.StatusPending,
		Sections: []model.Section{
			{District: "Pune", Items: []model.Item{
				{ID: "i1", Taluka: "Haveli", Quantity: d("10"), DeliveredQuantity: d("4")},
				{ID: "i2", Taluka: "Mulshi", Quantity: d("5"), DueDate: &past},
			}},
			{District: "Satara", Items: []model.Item{
				{ID: "i3", Taluka: "Wai", Quantity: d("7.5"), InProgressQuantity: d("2.5")},
			}},
		},
	}
	o.Recalculate(now)
	return o
}

func TestApplyOrderChange_RecomputesTotals(t *testing.T) {
	order := sampleOrder()
	require.True(t, order.GrandTotalQuantity.Equal(d("22.5")))

	next, err := ApplyOrderChangeAt(now, order, "deliveryOrderSections[0].deliveryOrderItems[1].quantity", "8")
	require.NoError(t, err)

	assert.True(t, next.Sections[0].TotalQuantity.Equal(d("18")), next.Sections[0].TotalQuantity.String())
	assert.True(t, next.GrandTotalQuantity.Equal(d("25.5")))
	assert.True(t, next.GrandTotalPendingQuantity.Equal(d("19")), next.GrandTotalPendingQuantity.String())
	assert.Equal(t, reconcile.StatusOverdue, next.Sections[0].Status)

	// input untouched
	assert.True(t, order.Sections[0].Items[1].Quantity.Equal(d("5")))
	assert.True(t, order.GrandTotalQuantity.Equal(d("22.5")))
}

func TestApplyOrderChange_MatchesServerAggregation(t *testing.T) {
	order := sampleOrder()
	next, err := ApplyOrderChangeAt(now, order, "deliveryOrderSections[1].deliveryOrderItems[0].rate", 12.5)
	require.NoError(t, err)

	server := CloneOrder(next)
	server.Recalculate(now)
	assert.Equal(t, server, next)
}

func TestApplyOrderChange_Fields(t *testing.T) {
	order := sampleOrder()

	next, err := ApplyOrderChangeAt(now, order, "contractId", "CT-9")
	require.NoError(t, err)
	assert.Equal(t, "CT-9", next.ContractID)

	next, err = ApplyOrderChangeAt(now, next, "dateOfContract", int64(1700000000))
	require.NoError(t, err)
	require.NotNil(t, next.DateOfContract)
	assert.EqualValues(t, 1700000000, *next.DateOfContract)

	next, err = ApplyOrderChangeAt(now, next, "deliveryOrderSections[0].deliveryOrderItems[1].dueDate", nil)
	require.NoError(t, err)
	assert.Nil(t, next.Sections[0].Items[1].DueDate)
	assert.Equal(t, reconcile.StatusPending, next.Sections[0].Status)
}

func TestApplyOrderChange_Errors(t *testing.T) {
	order := sampleOrder()
	tests := []struct {
		name  string
		path  string
		value any
		want  error
	}{
		{name: "unknown field", path: "grandTotalQuantity", value: "1", want: ErrUnknownPath},
		{name: "bad index", path: "deliveryOrderSections[5].district", value: "X", want: ErrIndexOutOfRange},
		{name: "malformed", path: "deliveryOrderSections[x].district", value: "X", want: ErrUnknownPath},
		{name: "bad number", path: "deliveryOrderSections[0].deliveryOrderItems[0].quantity", value: "ten", want: ErrInvalidValue},
		{name: "wrong type", path: "contractId", value: 42, want: ErrInvalidValue},
		{name: "district locked", path: "deliveryOrderSections[0].district", value: "Nashik", want: ErrDistrictLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyOrderChangeAt(now, order, tt.path, tt.value)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, order, got)
		})
	}
}

func TestSectionDistrictLocked(t *testing.T) {
	order := AddSection(sampleOrder(), "Nashik")
	empty := order.Sections[2]
	assert.False(t, SectionDistrictLocked(empty))

	renamed, err := ApplyOrderChangeAt(now, order, "deliveryOrderSections[2].district", "Nagpur")
	require.NoError(t, err)
	assert.Equal(t, "Nagpur", renamed.Sections[2].District)

	withItem, err := AddOrderItem(renamed, 2, model.Item{Taluka: "Katol", Quantity: d("3")})
	require.NoError(t, err)
	assert.True(t, SectionDistrictLocked(withItem.Sections[2]))
	assert.Equal(t, "Nagpur", withItem.Sections[2].Items[0].District)
	assert.True(t, withItem.GrandTotalQuantity.Equal(d("25.5")))

	withoutItem, err := RemoveOrderItem(withItem, 2, 0)
	require.NoError(t, err)
	assert.False(t, SectionDistrictLocked(withoutItem.Sections[2]))
	assert.Len(t, withItem.Sections[2].Items, 1)

	fewer, err := RemoveSection(withoutItem, 0)
	require.NoError(t, err)
	assert.Len(t, fewer.Sections, 2)
	assert.Equal(t, "Satara", fewer.Sections[0].District)
	assert.Equal(t, 0, fewer.Sections[0].IndexOrder)
}

func sampleChallan() model.DeliveryChallan {
	company, vehicle := "tc-1", "v-1"
	return model.DeliveryChallan{
		ID:                      "ch-1",
		DeliveryOrderID:         "order-1",
		Status:                  reconcile.StatusPending,
		TransportationCompanyID: &company,
		VehicleID:               &vehicle,
		VehicleNumber:           "MH12AB1234",
	}
}

func TestToggleChallanItem(t *testing.T) {
	order := sampleOrder()
	ch := sampleChallan()

	added, err := ToggleChallanItem(ch, order.Sections[0].Items[0])
	require.NoError(t, err)
	require.Len(t, added.Items, 1)
	line := added.Items[0]
	assert.Equal(t, "i1", line.DeliveryOrderItemID)
	assert.Equal(t, "Haveli", line.Taluka)
	assert.True(t, line.Quantity.Equal(d("10")))
	assert.True(t, line.DeliveringQuantity.IsZero())
	assert.Empty(t, ch.Items)

	removed, err := ToggleChallanItem(added, order.Sections[0].Items[0])
	require.NoError(t, err)
	assert.Empty(t, removed.Items)

	full := order.Sections[0].Items[0]
	full.DeliveredQuantity = d("6")
	full.InProgressQuantity = d("4")
	_, err = ToggleChallanItem(ch, full)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestToggleChallanItem_ReaddsOwnLine(t *testing.T) {
	item := sampleOrder().Sections[0].Items[0]
	item.DeliveredQuantity = d("6")
	item.InProgressQuantity = d("4")
	item.AssociatedChallanItems = []model.AssociatedChallanItem{
		{ID: "ci-1", DeliveryChallanID: "ch-1", DeliveringQuantity: d("4"), Status: reconcile.StatusPending},
	}

	readded, err := ToggleChallanItem(sampleChallan(), item)
	require.NoError(t, err)
	require.Len(t, readded.Items, 1)
	assert.Equal(t, "i1", readded.Items[0].DeliveryOrderItemID)

	other := sampleChallan()
	other.ID = "ch-2"
	_, err = ToggleChallanItem(other, item)
	assert.ErrorIs(t, err, ErrNoCapacity)

	unsaved := sampleChallan()
	unsaved.ID = ""
	_, err = ToggleChallanItem(unsaved, item)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestApplyChallanChange(t *testing.T) {
	order := sampleOrder()
	ch, err := ToggleChallanItem(sampleChallan(), order.Sections[0].Items[0])
	require.NoError(t, err)
	ch, err = ToggleChallanItem(ch, order.Sections[1].Items[0])
	require.NoError(t, err)

	next, err := ApplyChallanChange(ch, "deliveryChallanItems[0].deliveringQuantity", "3.5")
	require.NoError(t, err)
	next, err = ApplyChallanChange(next, "deliveryChallanItems[1].deliveringQuantity", 2)
	require.NoError(t, err)
	assert.True(t, next.TotalDeliveringQuantity.Equal(d("5.5")), next.TotalDeliveringQuantity.String())
	assert.True(t, ch.TotalDeliveringQuantity.IsZero())

	_, err = ApplyChallanChange(next, "deliveryChallanItems[0].deliveringQuantity", "-1")
	assert.ErrorIs(t, err, ErrInvalidValue)

	same, err := ApplyChallanChange(next, "transportationCompanyId", "tc-1")
	require.NoError(t, err)
	require.NotNil(t, same.VehicleID)

	moved, err := ApplyChallanChange(next, "transportationCompanyId", "tc-2")
	require.NoError(t, err)
	assert.Equal(t, "tc-2", *moved.TransportationCompanyID)
	assert.Nil(t, moved.VehicleID)
	assert.Empty(t, moved.VehicleNumber)
	require.NotNil(t, next.VehicleID)

	cleared, err := ApplyChallanChange(moved, "transportationCompanyId", "")
	require.NoError(t, err)
	assert.Nil(t, cleared.TransportationCompanyID)

	_, err = ApplyChallanChange(next, "status", "delivered")
	assert.ErrorIs(t, err, ErrUnknownPath)
}
