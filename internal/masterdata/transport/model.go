// Package transport manages transportation companies with their vehicles and
// drivers.
package transport

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// Vehicle belongs to exactly one company.
type Vehicle struct {
	ID            string `json:"id"`
	VehicleNumber string `json:"vehicleNumber" validate:"required,max=50"`
	Type          string `json:"type" validate:"max=50"`
	RCBookURL     string `json:"rcBookUrl" validate:"max=500"`
}

// Driver belongs to exactly one company.
type Driver struct {
	ID                string `json:"id"`
	Name              string `json:"name" validate:"required,max=200"`
	ContactNumber     string `json:"contactNumber" validate:"omitempty,phone10"`
	DrivingLicenseURL string `json:"drivingLicenseUrl" validate:"max=500"`
}

// Company is a transportation company. Vehicles and drivers are replaced as
// a whole on update; entries keep their id when the client sends it back.
type Company struct {
	ID             string        `json:"id"`
	CompanyName    string        `json:"companyName" validate:"required,max=200"`
	PointOfContact string        `json:"pointOfContact" validate:"max=200"`
	ContactNumber  string        `json:"contactNumber" validate:"omitempty,phone10"`
	Email          string        `json:"email" validate:"omitempty,email,max=200"`
	AddressLine1   string        `json:"addressLine1" validate:"max=300"`
	AddressLine2   string        `json:"addressLine2" validate:"max=300"`
	State          string        `json:"state" validate:"max=100"`
	District       string        `json:"district" validate:"max=100"`
	Taluka         string        `json:"taluka" validate:"max=100"`
	City           string        `json:"city" validate:"max=100"`
	PinCode        string        `json:"pinCode" validate:"max=10"`
	Status         shared.Status `json:"status"`
	Vehicles       []Vehicle     `json:"vehicles" validate:"dive"`
	Drivers        []Driver      `json:"drivers" validate:"dive"`
	CreatedAt      int64         `json:"createdAt"`
	UpdatedAt      int64         `json:"updatedAt"`
}

// ListRequest filters company listings.
type ListRequest struct {
	Search   string          `json:"search" validate:"max=200"`
	Statuses []shared.Status `json:"statuses" validate:"omitempty,dive,oneof=active inactive"`
	GetAll   bool            `json:"getAll"`
	Page     int             `json:"page" validate:"gte=0"`
	Size     int             `json:"size" validate:"gte=0,lte=100"`
}

var (
	// ErrFleetInUse is returned when an update drops a vehicle or driver that a
	// delivery challan still references.
	ErrFleetInUse       = fmt.Errorf("%w: vehicle or driver is referenced by a delivery challan", httpx.ErrConflict)
	ErrForeignVehicle   = fmt.Errorf("%w: vehicle belongs to another company", httpx.ErrValidation)
	ErrForeignDriver    = fmt.Errorf("%w: driver belongs to another company", httpx.ErrValidation)
	ErrDuplicateVehicle = fmt.Errorf("%w: vehicle listed twice", httpx.ErrValidation)
	ErrDuplicateDriver  = fmt.Errorf("%w: driver listed twice", httpx.ErrValidation)
)
