package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuoteSchemaVersion identifies the field set of StructuredQuote. Bump it when a
// field is added or renamed; older snapshots keep their own version tag.
const QuoteSchemaVersion = "quote.v1"

// DateLayout is the wire format of dates in extracted payloads.
const DateLayout = "2006-01-02"

// StructuredQuote is the typed record extracted from one supplier email.
// Any field may be nil when the model could not determine it, except
// DateSubmitted which the extractor defaults to the current UTC date.
type StructuredQuote struct {
	SchemaVersion        string   `json:"schema_version"`
	SupplierCompanyName  *string  `json:"supplier_company_name"`
	MainContactName      *string  `json:"main_contact_name"`
	MainContactEmail     *string  `json:"main_contact_email"`
	MainContactPhone     *string  `json:"main_contact_phone"`
	HQAddress            *string  `json:"hq_address"`
	PaymentTerms         *string  `json:"payment_terms"`
	DateSubmitted        *string  `json:"date_submitted"`
	PricePerUnit         *float64 `json:"price_per_unit"`
	CountryOfOrigin      *string  `json:"country_of_origin"`
	Certifications       []string `json:"certifications"`
	MinimumOrderQuantity *int64   `json:"minimum_order_quantity"`
}

// CompanyName returns the supplier company name or "" when absent.
func (q *StructuredQuote) CompanyName() string {
	if q.SupplierCompanyName == nil {
		return ""
	}
	return *q.SupplierCompanyName
}

// SubmittedAt parses DateSubmitted. Returns nil when no date is set.
func (q *StructuredQuote) SubmittedAt() (*time.Time, error) {
	if q.DateSubmitted == nil {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *q.DateSubmitted)
	if err != nil {
		return nil, fmt.Errorf("parse date_submitted %q: %w", *q.DateSubmitted, err)
	}
	return &t, nil
}

// Supplier builds the supplier row a first-seen company is created with.
func (q *StructuredQuote) Supplier() *Supplier {
	return &Supplier{
		CompanyName:      q.CompanyName(),
		MainContactName:  q.MainContactName,
		MainContactEmail: q.MainContactEmail,
		MainContactPhone: q.MainContactPhone,
		HQAddress:        q.HQAddress,
		PaymentTerms:     q.PaymentTerms,
	}
}

// Snapshot serializes the full payload for the email archive, including the
// contact fields that went into the supplier row.
func (q *StructuredQuote) Snapshot() (json.RawMessage, error) {
	snapshot := *q
	if snapshot.SchemaVersion == "" {
		snapshot.SchemaVersion = QuoteSchemaVersion
	}
	if snapshot.Certifications == nil {
		snapshot.Certifications = []string{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal structured quote: %w", err)
	}
	return data, nil
}
