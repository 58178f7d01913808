package challans

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/reconcile"
)

const (
	orderID        = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4a01"
	sectionPune    = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4b01"
	sectionSatara  = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4b02"
	itemA          = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4c01"
	itemB          = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4c02"
	itemC          = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4c03"
	partyID        = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4d01"
	locationID     = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4e01"
	materialID     = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f4f01"
	companyID      = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f5001"
	otherCompanyID = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f5002"
	vehicleID      = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f5101"
	otherVehicleID = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f5102"
	driverID       = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f5201"
	otherDriverID  = "6a0f4c2e-1b3d-4e5f-8a9b-0c1d2e3f5202"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func ptr(s string) *string { return &s }

func seedOrder(f *fakeStore) {
	due := fixedNow.AddDate(0, 0, -2).Unix()
	o := &orders.DeliveryOrder{
		ID:         orderID,
		ContractID: "CT-2026-007",
		PartyID:    partyID,
		PartyName:  "Krishi Seva Kendra",
		Status:     orders.StatusPending,
		Sections: []orders.Section{
			{
				ID:       sectionPune,
				District: "Pune",
				Items: []orders.Item{
					{ID: itemA, Taluka: "Haveli", LocationID: locationID, MaterialID: materialID, LocationName: "Hadapsar Godown", MaterialName: "Urea 45kg", Quantity: dec("100"), Rate: dec("10")},
					{ID: itemB, Taluka: "Mulshi", LocationID: locationID, MaterialID: materialID, LocationName: "Hadapsar Godown", MaterialName: "Urea 45kg", Quantity: dec("50"), Rate: dec("10")},
				},
			},
			{
				ID:       sectionSatara,
				District: "Satara",
				Items: []orders.Item{
					{ID: itemC, Taluka: "Karad", LocationID: locationID, MaterialID: materialID, LocationName: "Hadapsar Godown", MaterialName: "Urea 45kg", Quantity: dec("30"), Rate: dec("11"), DueDate: &due},
				},
			},
		},
	}
	o.Recalculate(fixedNow)
	f.orders[o.ID] = o
}

func newTestService() (*Service, *fakeStore, *recordingNotifier) {
	store := newFakeStore()
	seedOrder(store)
	store.transports[companyID] = &TransportRef{ID: companyID, Name: "Shree Roadways", Active: true, VehicleIDs: []string{vehicleID}, DriverIDs: []string{driverID}}
	store.transports[otherCompanyID] = &TransportRef{ID: otherCompanyID, Name: "Closed Carriers", Active: false, VehicleIDs: []string{otherVehicleID}, DriverIDs: []string{otherDriverID}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}
	svc := NewService(store, orderService{Service: orders.NewService(nil, logger), store: store}, logger)
	svc.now = func() time.Time { return fixedNow }
	svc.SetNotifier(notifier)
	return svc, store, notifier
}

func orderLine(t *testing.T, f *fakeStore, id string) reconcile.Line {
	t.Helper()
	it, ok := f.orders[orderID].ItemByID(id)
	require.True(t, ok)
	return it.Line()
}

func create(t *testing.T, svc *Service, items ...Item) *DeliveryChallan {
	t.Helper()
	c, err := svc.Create(context.Background(), DeliveryChallan{DeliveryOrderID: orderID, Items: items}, "")
	require.NoError(t, err)
	return c
}

func deliver(itemID, qty string) Item {
	return Item{DeliveryOrderItemID: itemID, DeliveringQuantity: dec(qty)}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("empty challan from order", func(t *testing.T) {
		svc, store, notifier := newTestService()

		c, err := svc.CreateFromDeliveryOrder(ctx, orderID, "")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, c.Status)
		assert.Equal(t, "CT-2026-007", c.ContractID)
		assert.Equal(t, "Krishi Seva Kendra", c.PartyName)
		require.NotNil(t, c.DateOfChallan)
		assert.Equal(t, fixedNow.Unix(), *c.DateOfChallan)
		assert.Empty(t, c.Items)
		assert.True(t, c.TotalDeliveringQuantity.IsZero())
		assert.Equal(t, []string{orderID}, notifier.ids)
		assert.Len(t, store.challans, 1)
	})

	t.Run("items move into progress", func(t *testing.T) {
		svc, store, _ := newTestService()

		c := create(t, svc, deliver(itemA, "40"), deliver(itemC, "30"))
		assert.True(t, c.TotalDeliveringQuantity.Equal(dec("70")))
		require.Len(t, c.Items, 2)
		assert.Equal(t, "Pune", c.Items[0].District)
		assert.True(t, c.Items[0].Quantity.Equal(dec("100")))
		assert.True(t, c.Items[0].InProgressQuantity.Equal(dec("40")))

		assert.True(t, orderLine(t, store, itemA).InProgress.Equal(dec("40")))
		assert.True(t, orderLine(t, store, itemC).InProgress.Equal(dec("30")))
		assert.True(t, orderLine(t, store, itemB).InProgress.IsZero())

		order := store.orders[orderID]
		assert.True(t, order.GrandTotalInProgressQuantity.Equal(dec("70")))
		assert.True(t, order.GrandTotalPendingQuantity.Equal(dec("110")))
		assert.Equal(t, orders.StatusPending, order.Status)
	})

	t.Run("exact remaining capacity", func(t *testing.T) {
		svc, store, _ := newTestService()
		create(t, svc, deliver(itemA, "70"))
		create(t, svc, deliver(itemA, "30"))

		line := orderLine(t, store, itemA)
		assert.True(t, line.InProgress.Equal(dec("100")))
		assert.True(t, line.Pending().IsZero())
	})

	t.Run("capacity exceeded aborts the whole save", func(t *testing.T) {
		svc, store, _ := newTestService()
		create(t, svc, deliver(itemA, "70"))

		_, err := svc.Create(ctx, DeliveryChallan{DeliveryOrderID: orderID, Items: []Item{deliver(itemB, "10"), deliver(itemA, "30.001")}}, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.ErrorIs(t, err, httpx.ErrConflict)
		assert.Len(t, store.challans, 1)
		assert.True(t, orderLine(t, store, itemA).InProgress.Equal(dec("70")))
		assert.True(t, orderLine(t, store, itemB).InProgress.IsZero())
	})

	t.Run("cancelled order", func(t *testing.T) {
		svc, store, _ := newTestService()
		store.orders[orderID].Status = orders.StatusCancelled

		_, err := svc.CreateFromDeliveryOrder(ctx, orderID, "")
		assert.ErrorIs(t, err, ErrOrderCancelled)
		assert.Empty(t, store.challans)
	})

	t.Run("item of another order", func(t *testing.T) {
		svc, store, _ := newTestService()

		_, err := svc.Create(ctx, DeliveryChallan{DeliveryOrderID: orderID, Items: []Item{deliver(partyID, "1")}}, "")
		assert.ErrorIs(t, err, ErrForeignItem)
		assert.Empty(t, store.challans)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.CreateFromDeliveryOrder(ctx, partyID, "")
		assert.ErrorIs(t, err, orders.ErrNotFound)
	})

	t.Run("idempotency key replay", func(t *testing.T) {
		svc, store, _ := newTestService()

		_, err := svc.CreateFromDeliveryOrder(ctx, orderID, "key-1")
		require.NoError(t, err)
		_, err = svc.CreateFromDeliveryOrder(ctx, orderID, "key-1")
		assert.ErrorIs(t, err, ErrDuplicateRequest)
		assert.ErrorIs(t, err, httpx.ErrDuplicate)
		assert.Len(t, store.challans, 1)

		_, err = svc.CreateFromDeliveryOrder(ctx, orderID, "key-2")
		require.NoError(t, err)
		assert.Len(t, store.challans, 2)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("resave replaces the previous contribution", func(t *testing.T) {
		svc, store, _ := newTestService()
		c := create(t, svc, deliver(itemA, "40"), deliver(itemC, "10"))
		keptID := c.Items[1].ID

		req := *c
		req.Items = []Item{deliver(itemC, "15"), deliver(itemB, "5")}
		saved, err := svc.Update(ctx, req)
		require.NoError(t, err)

		assert.True(t, orderLine(t, store, itemA).InProgress.IsZero())
		assert.True(t, orderLine(t, store, itemB).InProgress.Equal(dec("5")))
		assert.True(t, orderLine(t, store, itemC).InProgress.Equal(dec("15")))
		assert.True(t, saved.TotalDeliveringQuantity.Equal(dec("20")))
		require.Len(t, saved.Items, 2)
		assert.Equal(t, keptID, saved.Items[0].ID)
		assert.Equal(t, 1, saved.Items[1].IndexOrder)
	})

	t.Run("increase within capacity", func(t *testing.T) {
		svc, store, _ := newTestService()
		c := create(t, svc, deliver(itemA, "40"))
		create(t, svc, deliver(itemA, "40"))

		req := *c
		req.Items = []Item{deliver(itemA, "60")}
		_, err := svc.Update(ctx, req)
		require.NoError(t, err)
		assert.True(t, orderLine(t, store, itemA).InProgress.Equal(dec("100")))
	})

	t.Run("over capacity keeps the previous state", func(t *testing.T) {
		svc, store, _ := newTestService()
		c := create(t, svc, deliver(itemA, "20"))
		create(t, svc, deliver(itemA, "70"))

		req := *c
		req.Items = []Item{deliver(itemA, "31")}
		_, err := svc.Update(ctx, req)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.True(t, orderLine(t, store, itemA).InProgress.Equal(dec("90")))
		assert.True(t, store.challans[c.ID].TotalDeliveringQuantity.Equal(dec("20")))
	})

	tests := []struct {
		name   string
		mutate func(*DeliveryChallan)
		want   error
	}{
		{
			name:   "duplicate order item",
			mutate: func(c *DeliveryChallan) { c.Items = []Item{deliver(itemA, "1"), deliver(itemA, "2")} },
			want:   ErrDuplicateItem,
		},
		{
			name:   "negative quantity",
			mutate: func(c *DeliveryChallan) { c.Items = []Item{deliver(itemA, "-1")} },
			want:   ErrNegativeQuantity,
		},
		{
			name:   "order reassigned",
			mutate: func(c *DeliveryChallan) { c.DeliveryOrderID = partyID },
			want:   ErrOrderImmutable,
		},
		{
			name:   "missing id",
			mutate: func(c *DeliveryChallan) { c.ID = "" },
			want:   ErrMissingID,
		},
		{
			name:   "unknown challan",
			mutate: func(c *DeliveryChallan) { c.ID = partyID },
			want:   ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService()
			c := create(t, svc, deliver(itemA, "40"))

			req := *c
			tt.mutate(&req)
			_, err := svc.Update(ctx, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, orderLine(t, store, itemA).InProgress.Equal(dec("40")))
		})
	}

	t.Run("delivered challan is frozen", func(t *testing.T) {
		svc, _, _ := newTestService()
		c := create(t, svc, deliver(itemA, "40"))
		_, err := svc.MarkDelivered(ctx, c.ID)
		require.NoError(t, err)

		_, err = svc.Update(ctx, *c)
		assert.ErrorIs(t, err, ErrCannotEdit)
	})
}

func TestService_Transport(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		company *string
		vehicle *string
		driver  *string
		want    error
	}{
		{name: "full assignment", company: ptr(companyID), vehicle: ptr(vehicleID), driver: ptr(driverID)},
		{name: "company only", company: ptr(companyID)},
		{name: "blank ids mean none", company: ptr(""), vehicle: ptr(" ")},
		{name: "inactive company", company: ptr(otherCompanyID), want: ErrTransportInactive},
		{name: "unknown company", company: ptr(partyID), want: ErrTransportNotFound},
		{name: "vehicle of another company", company: ptr(companyID), vehicle: ptr(otherVehicleID), want: ErrVehicleMismatch},
		{name: "driver of another company", company: ptr(companyID), driver: ptr(otherDriverID), want: ErrDriverMismatch},
		{name: "vehicle without company", vehicle: ptr(vehicleID), want: ErrTransportRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			c := create(t, svc)

			req := *c
			req.TransportationCompanyID = tt.company
			req.VehicleID = tt.vehicle
			req.DriverID = tt.driver
			saved, err := svc.Update(ctx, req)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.ErrorIs(t, err, httpx.ErrValidation)
				return
			}
			require.NoError(t, err)
			if tt.company != nil && *tt.company != "" {
				require.NotNil(t, saved.TransportationCompanyID)
				assert.Equal(t, *tt.company, *saved.TransportationCompanyID)
			} else {
				assert.Nil(t, saved.TransportationCompanyID)
				assert.Nil(t, saved.VehicleID)
			}
		})
	}

	t.Run("company deactivated after assignment stays valid", func(t *testing.T) {
		svc, store, _ := newTestService()
		c := create(t, svc)
		req := *c
		req.TransportationCompanyID = ptr(companyID)
		saved, err := svc.Update(ctx, req)
		require.NoError(t, err)

		store.transports[companyID].Active = false
		saved.Items = []Item{deliver(itemB, "5")}
		_, err = svc.Update(ctx, *saved)
		require.NoError(t, err)
	})
}

func TestService_MarkDelivered(t *testing.T) {
	ctx := context.Background()

	t.Run("moves in-progress to delivered", func(t *testing.T) {
		svc, store, _ := newTestService()
		c := create(t, svc, deliver(itemA, "40"))

		delivered, err := svc.MarkDelivered(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, delivered.Status)

		line := orderLine(t, store, itemA)
		assert.True(t, line.Delivered.Equal(dec("40")))
		assert.True(t, line.InProgress.IsZero())
		assert.True(t, store.orders[orderID].GrandTotalDeliveredQuantity.Equal(dec("40")))

		_, err = svc.MarkDelivered(ctx, c.ID)
		assert.ErrorIs(t, err, ErrCannotDeliver)
	})

	t.Run("fully delivered order", func(t *testing.T) {
		svc, store, _ := newTestService()
		first := create(t, svc, deliver(itemA, "100"), deliver(itemB, "20"))
		second := create(t, svc, deliver(itemB, "30"), deliver(itemC, "30"))

		_, err := svc.MarkDelivered(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPending, store.orders[orderID].Status)

		_, err = svc.MarkDelivered(ctx, second.ID)
		require.NoError(t, err)
		order := store.orders[orderID]
		assert.Equal(t, orders.StatusDelivered, order.Status)
		assert.Equal(t, orders.StatusDelivered, order.Sections[1].Status)
		assert.True(t, order.GrandTotalPendingQuantity.IsZero())
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("save then cancel restores the order exactly", func(t *testing.T) {
		svc, store, _ := newTestService()
		create(t, svc, deliver(itemA, "12.345"))
		before := map[string]reconcile.Line{
			itemA: orderLine(t, store, itemA),
			itemB: orderLine(t, store, itemB),
			itemC: orderLine(t, store, itemC),
		}

		c := create(t, svc, deliver(itemA, "7.655"), deliver(itemB, "49.999"), deliver(itemC, "0"))
		cancelled, err := svc.Cancel(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)

		for id, want := range before {
			got := orderLine(t, store, id)
			assert.True(t, want.InProgress.Equal(got.InProgress), id)
			assert.True(t, want.Delivered.Equal(got.Delivered), id)
		}

		_, err = svc.Cancel(ctx, c.ID)
		assert.ErrorIs(t, err, ErrCannotCancel)
		_, err = svc.Update(ctx, *c)
		assert.ErrorIs(t, err, ErrCannotEdit)
	})

	t.Run("delivered challan reverses delivered quantity", func(t *testing.T) {
		svc, store, _ := newTestService()
		c := create(t, svc, deliver(itemA, "100"), deliver(itemB, "50"), deliver(itemC, "30"))
		_, err := svc.MarkDelivered(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, orders.StatusDelivered, store.orders[orderID].Status)

		_, err = svc.Cancel(ctx, c.ID)
		require.NoError(t, err)
		line := orderLine(t, store, itemA)
		assert.True(t, line.Delivered.IsZero())
		assert.True(t, line.InProgress.IsZero())
		assert.Equal(t, orders.StatusPending, store.orders[orderID].Status)
	})

	t.Run("unknown challan", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Cancel(ctx, partyID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_SaveOrderAndCreateChallan(t *testing.T) {
	ctx := context.Background()

	editedOrder := func(store *fakeStore) orders.DeliveryOrder {
		o := *cloneOrder(store.orders[orderID])
		o.Sections[1].Items[0].Quantity = dec("35")
		return o
	}

	t.Run("commits both", func(t *testing.T) {
		svc, store, _ := newTestService()

		result, err := svc.SaveOrderAndCreateChallan(ctx, editedOrder(store), "")
		require.NoError(t, err)
		assert.True(t, result.DeliveryOrder.GrandTotalQuantity.Equal(dec("185")))
		assert.Equal(t, orderID, result.DeliveryChallan.DeliveryOrderID)
		assert.Equal(t, StatusPending, result.DeliveryChallan.Status)
		assert.Len(t, store.challans, 1)
	})

	t.Run("challan failure rolls back the order update", func(t *testing.T) {
		svc, store, _ := newTestService()
		store.insertErr = errors.New("connection reset")

		_, err := svc.SaveOrderAndCreateChallan(ctx, editedOrder(store), "")
		require.Error(t, err)
		assert.True(t, orderLine(t, store, itemC).Quantity.Equal(dec("30")))
		assert.Empty(t, store.challans)
		assert.Equal(t, 1, store.rolledBack)
	})

	t.Run("order validation failure creates nothing", func(t *testing.T) {
		svc, store, _ := newTestService()
		create(t, svc, deliver(itemC, "20"))

		o := *cloneOrder(store.orders[orderID])
		o.Sections[1].Items[0].Quantity = dec("10")
		_, err := svc.SaveOrderAndCreateChallan(ctx, o, "")
		assert.ErrorIs(t, err, orders.ErrQuantityBelowCommitted)
		assert.Len(t, store.challans, 1)
	})

	t.Run("cancelled order", func(t *testing.T) {
		svc, store, _ := newTestService()
		store.orders[orderID].Status = orders.StatusCancelled

		_, err := svc.SaveOrderAndCreateChallan(ctx, editedOrder(store), "")
		assert.ErrorIs(t, err, orders.ErrCannotEdit)
		assert.Empty(t, store.challans)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	first := create(t, svc, deliver(itemA, "1"))
	create(t, svc, deliver(itemA, "1"))
	create(t, svc)
	_, err := svc.MarkDelivered(ctx, first.ID)
	require.NoError(t, err)

	records, page, err := svc.List(ctx, ListRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasNext)

	records, _, err = svc.List(ctx, ListRequest{Statuses: []Status{StatusDelivered}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].ID)

	records, _, err = svc.List(ctx, ListRequest{DeliveryOrderIDs: []string{partyID}})
	require.NoError(t, err)
	assert.Empty(t, records)

	from, to := int64(10), int64(5)
	_, _, err = svc.List(ctx, ListRequest{FromDate: &from, ToDate: &to})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
