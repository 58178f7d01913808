package model

// RecordStatus is the lifecycle state of a master data record.
type RecordStatus string

const (
	RecordActive   RecordStatus = "active"
	RecordInactive RecordStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	return s == RecordActive || s == RecordInactive
}

// Contact is the address book record shared by parties and locations.
type Contact struct {
	ID             string       `json:"id"`
	Name           string       `json:"name" validate:"required,max=200"`
	PointOfContact string       `json:"pointOfContact" validate:"max=200"`
	ContactNumber  string       `json:"contactNumber" validate:"omitempty,phone10"`
	Email          string       `json:"email" validate:"omitempty,email,max=200"`
	AddressLine1   string       `json:"addressLine1" validate:"max=300"`
	AddressLine2   string       `json:"addressLine2" validate:"max=300"`
	State          string       `json:"state" validate:"max=100"`
	District       string       `json:"district" validate:"max=100"`
	Taluka         string       `json:"taluka" validate:"max=100"`
	City           string       `json:"city" validate:"max=100"`
	Pincode        string       `json:"pincode" validate:"max=10"`
	Status         RecordStatus `json:"status"`
	CreatedAt      int64        `json:"createdAt"`
	UpdatedAt      int64        `json:"updatedAt"`
}

// Party and Location share the contact document.
type (
	Party    = Contact
	Location = Contact
)

// ContactListRequest filters party and location listings.
type ContactListRequest struct {
	Search    string         `json:"search" validate:"max=200"`
	States    []string       `json:"states"`
	Districts []string       `json:"districts"`
	Talukas   []string       `json:"talukas"`
	Cities    []string       `json:"cities"`
	Statuses  []RecordStatus `json:"statuses" validate:"omitempty,dive,oneof=active inactive"`
	GetAll    bool           `json:"getAll"`
	Page      int            `json:"page" validate:"gte=0"`
	Size      int            `json:"size" validate:"gte=0,lte=100"`
}

// File is the metadata of one stored upload.
type File struct {
	PublicID    string  `json:"publicId"`
	Filename    string  `json:"filename"`
	Extension   string  `json:"extension"`
	ContentType string  `json:"contentType"`
	Size        int64   `json:"size"`
	UploadedBy  *string `json:"uploadedBy,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
}
