package challans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
)

// DispatchWorkflowSuite drives one order through several partial dispatches.
type DispatchWorkflowSuite struct {
	suite.Suite
	svc      *Service
	store    *fakeStore
	notifier *recordingNotifier
	ctx      context.Context
}

func (s *DispatchWorkflowSuite) SetupTest() {
	s.svc, s.store, s.notifier = newTestService()
	s.ctx = context.Background()
}

func (s *DispatchWorkflowSuite) assertLine(itemID, delivered, inProgress, pending string) {
	line := orderLine(s.T(), s.store, itemID)
	s.True(line.Delivered.Equal(dec(delivered)), "%s delivered %s", itemID, line.Delivered)
	s.True(line.InProgress.Equal(dec(inProgress)), "%s in progress %s", itemID, line.InProgress)
	s.True(line.Pending().Equal(dec(pending)), "%s pending %s", itemID, line.Pending())
}

func (s *DispatchWorkflowSuite) TestPartialDispatches() {
	first := create(s.T(), s.svc, deliver(itemA, "60"))
	second := create(s.T(), s.svc, deliver(itemA, "40"), deliver(itemB, "10"))
	s.assertLine(itemA, "0", "100", "0")
	s.assertLine(itemB, "0", "10", "40")

	_, err := s.svc.Create(s.ctx, DeliveryChallan{DeliveryOrderID: orderID, Items: []Item{deliver(itemA, "0.001")}}, "")
	s.ErrorIs(err, ErrCapacityExceeded)
	s.assertLine(itemA, "0", "100", "0")

	_, err = s.svc.MarkDelivered(s.ctx, first.ID)
	s.Require().NoError(err)
	s.assertLine(itemA, "60", "40", "0")

	req := *second
	req.Items = []Item{deliver(itemA, "30"), deliver(itemB, "10")}
	_, err = s.svc.Update(s.ctx, req)
	s.Require().NoError(err)
	s.assertLine(itemA, "60", "30", "10")

	_, err = s.svc.Cancel(s.ctx, first.ID)
	s.Require().NoError(err)
	s.assertLine(itemA, "0", "30", "70")
	s.assertLine(itemB, "0", "10", "40")

	order := s.store.orders[orderID]
	s.True(order.GrandTotalInProgressQuantity.Equal(dec("40")))
	s.True(order.GrandTotalDeliveredQuantity.IsZero())
	s.Equal(orders.StatusPending, order.Status)
	s.NotEmpty(s.notifier.ids)
}

func (s *DispatchWorkflowSuite) TestDeliverEverythingThenReopen() {
	c := create(s.T(), s.svc, deliver(itemA, "100"), deliver(itemB, "50"), deliver(itemC, "30"))
	_, err := s.svc.MarkDelivered(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(orders.StatusDelivered, s.store.orders[orderID].Status)

	_, err = s.svc.CreateFromDeliveryOrder(s.ctx, orderID, "")
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, DeliveryChallan{DeliveryOrderID: orderID, Items: []Item{deliver(itemC, "1")}}, "")
	s.ErrorIs(err, ErrCapacityExceeded)

	_, err = s.svc.Cancel(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(orders.StatusPending, s.store.orders[orderID].Status)
	s.assertLine(itemC, "0", "0", "30")
}

func TestDispatchWorkflowSuite(t *testing.T) {
	suite.Run(t, new(DispatchWorkflowSuite))
}
