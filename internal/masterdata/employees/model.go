// Package employees manages portal users and their credentials.
package employees

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// Employee is a portal user. Password is accepted on write and never returned.
type Employee struct {
	ID            string        `json:"id"`
	Name          string        `json:"name" validate:"required,max=200"`
	Email         string        `json:"email" validate:"required,email,max=254"`
	ContactNumber string        `json:"contactNumber" validate:"omitempty,phone10"`
	Role          string        `json:"role" validate:"required,role"`
	Password      string        `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Status        shared.Status `json:"status"`
	CreatedAt     int64         `json:"createdAt"`
	UpdatedAt     int64         `json:"updatedAt"`
}

// Credentials is what login needs to know about an employee.
type Credentials struct {
	EmployeeID   string
	Email        string
	Role         string
	Status       shared.Status
	PasswordHash string
}

// ListRequest filters employee listings.
type ListRequest struct {
	Search   string          `json:"search" validate:"max=200"`
	Roles    []string        `json:"roles" validate:"omitempty,dive,role"`
	Statuses []shared.Status `json:"statuses" validate:"omitempty,dive,oneof=active inactive"`
	Page     int             `json:"page" validate:"gte=0"`
	Size     int             `json:"size" validate:"gte=0,lte=100"`
}

var (
	ErrDuplicateEmail   = fmt.Errorf("%w: employee email already exists", httpx.ErrDuplicate)
	ErrSelfDeactivation = fmt.Errorf("%w: employees cannot deactivate themselves", httpx.ErrConflict)
	ErrNoPassword       = fmt.Errorf("%w: employee has no password set", httpx.ErrUnauthorized)
	ErrPasswordRequired = fmt.Errorf("%w: password is required", httpx.ErrValidation)
	ErrPasswordTooLong  = fmt.Errorf("%w: password is too long", httpx.ErrValidation)
)
