package challans

import "github.com/solutions-liquify/tms/model"

// ListRequest represents filters for listing delivery challans.
type ListRequest = model.ChallanListRequest

// ListResult is a page of records plus the unpaged total.
type ListResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}
