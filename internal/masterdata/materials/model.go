// Package materials manages the goods carried on delivery orders.
package materials

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// Material is a deliverable good.
type Material struct {
	ID        string        `json:"id"`
	Name      string        `json:"name" validate:"required,max=200"`
	Unit      string        `json:"unit" validate:"max=20"`
	Status    shared.Status `json:"status"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

// ListRequest filters material listings.
type ListRequest struct {
	Search   string          `json:"search" validate:"max=200"`
	Statuses []shared.Status `json:"statuses" validate:"omitempty,dive,oneof=active inactive"`
	GetAll   bool            `json:"getAll"`
	Page     int             `json:"page" validate:"gte=0"`
	Size     int             `json:"size" validate:"gte=0,lte=100"`
}

// ErrDuplicateName indicates another material already uses the name.
var ErrDuplicateName = fmt.Errorf("%w: material name already exists", httpx.ErrDuplicate)
