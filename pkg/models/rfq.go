package models

import (
	"time"

	"github.com/google/uuid"
)

// RFQ is a buyer's request for quotation. Quotes attach to an existing RFQ.
// Stored in rfqs table.
type RFQ struct {
	ID                     uuid.UUID  `json:"id"`
	Item                   string     `json:"item"`
	DueDate                *time.Time `json:"due_date,omitempty"`
	AmountRequired         *float64   `json:"amount_required,omitempty"`
	ShipToLocation         *string    `json:"ship_to_location,omitempty"`
	RequiredCertifications *string    `json:"required_certifications,omitempty"` // comma-joined
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// RFQUpdate lists the RFQ fields an administrator may change. Nil fields are left untouched.
type RFQUpdate struct {
	Item                   *string    `json:"item,omitempty"`
	DueDate                *time.Time `json:"due_date,omitempty"`
	AmountRequired         *float64   `json:"amount_required,omitempty"`
	ShipToLocation         *string    `json:"ship_to_location,omitempty"`
	RequiredCertifications *string    `json:"required_certifications,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *RFQUpdate) IsEmpty() bool {
	return u.Item == nil && u.DueDate == nil && u.AmountRequired == nil &&
		u.ShipToLocation == nil && u.RequiredCertifications == nil
}

// Apply copies the non-nil fields of the update onto r.
func (u *RFQUpdate) Apply(r *RFQ) {
	if u.Item != nil {
		r.Item = *u.Item
	}
	if u.DueDate != nil {
		r.DueDate = u.DueDate
	}
	if u.AmountRequired != nil {
		r.AmountRequired = u.AmountRequired
	}
	if u.ShipToLocation != nil {
		r.ShipToLocation = u.ShipToLocation
	}
	if u.RequiredCertifications != nil {
		r.RequiredCertifications = u.RequiredCertifications
	}
}
