package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestStructuredQuote_SubmittedAt(t *testing.T) {
	q := &StructuredQuote{DateSubmitted: strPtr("2024-03-15")}

	got, err := q.SubmittedAt()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got)
}

func TestStructuredQuote_SubmittedAt_Nil(t *testing.T) {
	q := &StructuredQuote{}

	got, err := q.SubmittedAt()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStructuredQuote_SubmittedAt_BadFormat(t *testing.T) {
	q := &StructuredQuote{DateSubmitted: strPtr("March 15")}

	_, err := q.SubmittedAt()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_submitted")
}

func TestStructuredQuote_Supplier(t *testing.T) {
	q := &StructuredQuote{
		SupplierCompanyName: strPtr("Acme Foods"),
		MainContactName:     strPtr("Jane Roe"),
		PaymentTerms:        strPtr("Net 30"),
	}

	s := q.Supplier()
	assert.Equal(t, "Acme Foods", s.CompanyName)
	assert.Equal(t, "Jane Roe", *s.MainContactName)
	assert.Equal(t, "Net 30", *s.PaymentTerms)
	assert.Nil(t, s.MainContactEmail)
}

func TestStructuredQuote_Snapshot_KeepsContactFieldsAndVersion(t *testing.T) {
	q := &StructuredQuote{
		SupplierCompanyName: strPtr("Acme Foods"),
		MainContactEmail:    strPtr("jane@acme.test"),
	}

	raw, err := q.Snapshot()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, QuoteSchemaVersion, decoded["schema_version"])
	assert.Equal(t, "jane@acme.test", decoded["main_contact_email"])
	assert.Equal(t, []any{}, decoded["certifications"])
	assert.Nil(t, decoded["price_per_unit"])
	assert.Empty(t, q.SchemaVersion, "snapshot must not mutate the receiver")
}
