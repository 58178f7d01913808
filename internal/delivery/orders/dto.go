package orders

import "github.com/solutions-liquify/tms/model"

// ListRequest represents filters for listing delivery orders.
type ListRequest = model.OrderListRequest

// PendingItemsRequest pages the pending item dashboard.
type PendingItemsRequest = model.PendingItemsRequest

// ListResult is a page of records plus the unpaged total.
type ListResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}
