package models

import "time"

// Supplier is a company that submits quotes. CompanyName is the natural key:
// the first email naming a company creates the row and later emails only match it.
// Stored in suppliers table.
type Supplier struct {
	CompanyName      string    `json:"company_name"`
	MainContactName  *string   `json:"main_contact_name,omitempty"`
	MainContactEmail *string   `json:"main_contact_email,omitempty"`
	MainContactPhone *string   `json:"main_contact_phone,omitempty"`
	HQAddress        *string   `json:"hq_address,omitempty"`
	PaymentTerms     *string   `json:"payment_terms,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SupplierUpdate lists the supplier fields an administrator may change.
// Nil fields are left untouched. The company name is immutable.
type SupplierUpdate struct {
	MainContactName  *string `json:"main_contact_name,omitempty"`
	MainContactEmail *string `json:"main_contact_email,omitempty"`
	MainContactPhone *string `json:"main_contact_phone,omitempty"`
	HQAddress        *string `json:"hq_address,omitempty"`
	PaymentTerms     *string `json:"payment_terms,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *SupplierUpdate) IsEmpty() bool {
	return u.MainContactName == nil && u.MainContactEmail == nil && u.MainContactPhone == nil &&
		u.HQAddress == nil && u.PaymentTerms == nil
}

// Apply copies the non-nil fields of the update onto s.
func (u *SupplierUpdate) Apply(s *Supplier) {
	if u.MainContactName != nil {
		s.MainContactName = u.MainContactName
	}
	if u.MainContactEmail != nil {
		s.MainContactEmail = u.MainContactEmail
	}
	if u.MainContactPhone != nil {
		s.MainContactPhone = u.MainContactPhone
	}
	if u.HQAddress != nil {
		s.HQAddress = u.HQAddress
	}
	if u.PaymentTerms != nil {
		s.PaymentTerms = u.PaymentTerms
	}
}
