package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldDistrict(t *testing.T) {
	assert.Equal(t, FoldDistrict("Pune"), FoldDistrict("  PUNE "))
	assert.NotEqual(t, FoldDistrict("Pune"), FoldDistrict("Satara"))
	assert.Empty(t, FoldDistrict("   "))
}

func TestValidateOrder(t *testing.T) {
	order := sampleOrder()
	assert.NoError(t, ValidateOrder(&order))

	order.Sections[0].District = " "
	assert.ErrorIs(t, ValidateOrder(&order), ErrDistrictRequired)
}

func TestRecalculate_TotalsBalance(t *testing.T) {
	order := sampleOrder()
	order.Sections[0].Items[0].DeliveredQuantity = dec("100")
	order.Sections[0].Items[1].InProgressQuantity = dec("10.25")
	order.Sections[1].Items[0].DeliveredQuantity = dec("59.5")
	order.Recalculate(fixedNow)

	sum := order.GrandTotalDeliveredQuantity.Add(order.GrandTotalInProgressQuantity).Add(order.GrandTotalPendingQuantity)
	assert.True(t, order.GrandTotalQuantity.Equal(sum))
	assert.Equal(t, StatusDelivered, order.Sections[0].Items[0].Status)
	assert.Equal(t, StatusPending, order.Sections[0].Status)
	assert.Equal(t, StatusOverdue, order.Sections[1].Status)
	assert.Equal(t, StatusPending, order.Status)

	order.Sections[0].Items[1].DeliveredQuantity = dec("40.5")
	order.Sections[0].Items[1].InProgressQuantity = dec("0")
	order.Sections[1].Items[0].DeliveredQuantity = dec("60")
	order.Recalculate(fixedNow)
	assert.Equal(t, StatusDelivered, order.Status)
	assert.True(t, order.GrandTotalPendingQuantity.IsZero())
}
