package models

import (
	"time"

	"github.com/google/uuid"
)

// Quote is one supplier's structured bid against one RFQ.
// Created only by reconciliation of an extracted email. Stored in quotes table.
type Quote struct {
	ID                   uuid.UUID  `json:"id"`
	RFQID                uuid.UUID  `json:"rfq_id"`
	SupplierCompanyName  string     `json:"supplier_company_name"`
	DateSubmitted        *time.Time `json:"date_submitted,omitempty"`
	PricePerUnit         *float64   `json:"price_per_unit,omitempty"`
	CountryOfOrigin      *string    `json:"country_of_origin,omitempty"`
	Certifications       string     `json:"certifications"` // comma-joined
	MinimumOrderQuantity *int64     `json:"minimum_order_quantity,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// CertificationList returns the stored certifications split back into a list.
func (q *Quote) CertificationList() []string {
	return SplitCertifications(q.Certifications)
}

// QuoteWithSupplier is a quote joined with the supplier that submitted it,
// as shown when comparing the quotes of one RFQ.
type QuoteWithSupplier struct {
	Quote
	Supplier *Supplier `json:"supplier"`
}

// QuoteUpdate lists the quote fields an administrator may correct. Nil fields are left untouched.
type QuoteUpdate struct {
	DateSubmitted        *time.Time `json:"date_submitted,omitempty"`
	PricePerUnit         *float64   `json:"price_per_unit,omitempty"`
	CountryOfOrigin      *string    `json:"country_of_origin,omitempty"`
	Certifications       *[]string  `json:"certifications,omitempty"`
	MinimumOrderQuantity *int64     `json:"minimum_order_quantity,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *QuoteUpdate) IsEmpty() bool {
	return u.DateSubmitted == nil && u.PricePerUnit == nil && u.CountryOfOrigin == nil &&
		u.Certifications == nil && u.MinimumOrderQuantity == nil
}

// Apply copies the non-nil fields of the update onto q.
func (u *QuoteUpdate) Apply(q *Quote) {
	if u.DateSubmitted != nil {
		q.DateSubmitted = u.DateSubmitted
	}
	if u.PricePerUnit != nil {
		q.PricePerUnit = u.PricePerUnit
	}
	if u.CountryOfOrigin != nil {
		q.CountryOfOrigin = u.CountryOfOrigin
	}
	if u.Certifications != nil {
		q.Certifications = JoinCertifications(*u.Certifications)
	}
	if u.MinimumOrderQuantity != nil {
		q.MinimumOrderQuantity = u.MinimumOrderQuantity
	}
}
