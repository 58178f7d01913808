package client

import (
	"context"
	"net/http"

	"github.com/solutions-liquify/tms/model"
)

// CreateOrder creates a delivery order.
func (c *Client) CreateOrder(ctx context.Context, o model.DeliveryOrder) (*model.DeliveryOrder, error) {
	var out model.DeliveryOrder
	if err := c.postJSON(ctx, "/delivery-orders/create", o, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrder replaces the order document.
func (c *Client) UpdateOrder(ctx context.Context, o model.DeliveryOrder) (*model.DeliveryOrder, error) {
	var out model.DeliveryOrder
	if err := c.postJSON(ctx, "/delivery-orders/update", o, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches one order with its sections and items.
func (c *Client) GetOrder(ctx context.Context, id string) (*model.DeliveryOrder, error) {
	var out model.DeliveryOrder
	if err := c.getJSON(ctx, "/delivery-orders/get/"+escape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders returns one page of order summaries.
func (c *Client) ListOrders(ctx context.Context, req model.OrderListRequest) ([]model.OrderRecord, Page, error) {
	var out []model.OrderRecord
	page, err := c.list(ctx, "/delivery-orders/list", req, &out)
	return out, page, err
}

// ListPendingItems pages through undelivered order items.
func (c *Client) ListPendingItems(ctx context.Context, req model.PendingItemsRequest) ([]model.PendingItem, Page, error) {
	var out []model.PendingItem
	page, err := c.list(ctx, "/delivery-orders/list-pending-items", req, &out)
	return out, page, err
}

// ListOrderItems returns the picker metadata of an order's items.
func (c *Client) ListOrderItems(ctx context.Context, orderID string) ([]model.ItemMetadata, error) {
	var out []model.ItemMetadata
	err := c.getJSON(ctx, "/delivery-orders/list-items/"+escape(orderID), &out)
	return out, err
}

// CancelOrder cancels an order.
func (c *Client) CancelOrder(ctx context.Context, id string) (*model.DeliveryOrder, error) {
	var out model.DeliveryOrder
	if _, err := c.call(ctx, request{method: http.MethodDelete, path: "/delivery-orders/cancel/" + escape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveOrderAndCreateChallan updates the order and opens a draft challan in
// one transaction.
func (c *Client) SaveOrderAndCreateChallan(ctx context.Context, o model.DeliveryOrder, idemKey string) (*model.OrderWithChallan, error) {
	var out model.OrderWithChallan
	if err := c.postJSON(ctx, "/delivery-orders/update-and-create-challan", o, &out, idemKey); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateChallan creates a challan with its items.
func (c *Client) CreateChallan(ctx context.Context, ch model.DeliveryChallan, idemKey string) (*model.DeliveryChallan, error) {
	var out model.DeliveryChallan
	if err := c.postJSON(ctx, "/delivery-challans/create", ch, &out, idemKey); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateChallanFromOrder opens an empty draft challan for an order.
func (c *Client) CreateChallanFromOrder(ctx context.Context, orderID, idemKey string) (*model.DeliveryChallan, error) {
	var out model.DeliveryChallan
	req := request{method: http.MethodGet, path: "/delivery-challans/create/from-delivery-order/" + escape(orderID), idemKey: idemKey}
	if _, err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChallan saves a pending challan.
func (c *Client) UpdateChallan(ctx context.Context, ch model.DeliveryChallan) (*model.DeliveryChallan, error) {
	var out model.DeliveryChallan
	if err := c.postJSON(ctx, "/delivery-challans/update", ch, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChallan fetches one challan.
func (c *Client) GetChallan(ctx context.Context, id string) (*model.DeliveryChallan, error) {
	var out model.DeliveryChallan
	if err := c.getJSON(ctx, "/delivery-challans/get/"+escape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChallans returns one page of challan summaries.
func (c *Client) ListChallans(ctx context.Context, req model.ChallanListRequest) ([]model.ChallanRecord, Page, error) {
	var out []model.ChallanRecord
	page, err := c.list(ctx, "/delivery-challans/list", req, &out)
	return out, page, err
}

// MarkChallanDelivered confirms delivery of a pending challan.
func (c *Client) MarkChallanDelivered(ctx context.Context, id string) (*model.DeliveryChallan, error) {
	var out model.DeliveryChallan
	if err := c.postJSON(ctx, "/delivery-challans/mark-delivered/"+escape(id), nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelChallan cancels a challan and releases its quantities.
func (c *Client) CancelChallan(ctx context.Context, id string) (*model.DeliveryChallan, error) {
	var out model.DeliveryChallan
	if _, err := c.call(ctx, request{method: http.MethodDelete, path: "/delivery-challans/cancel/" + escape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
