package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
)

func storeQuote(store *memStore, supplier models.Supplier, quote models.Quote) uuid.UUID {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.suppliers[supplier.CompanyName] = supplier
	quote.ID = uuid.New()
	quote.SupplierCompanyName = supplier.CompanyName
	store.quotes[quote.ID] = quote
	return quote.ID
}

func completeSupplier() models.Supplier {
	return models.Supplier{
		CompanyName:      "Acme Foods Ltd",
		MainContactName:  strPtr("Jane Doe"),
		MainContactEmail: strPtr("jane@acme.example"),
		MainContactPhone: strPtr("+1 555 0100"),
		HQAddress:        strPtr("1 Harbour Road, Accra"),
		PaymentTerms:     strPtr("Net 30"),
	}
}

func completeQuote() models.Quote {
	submitted := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	return models.Quote{
		DateSubmitted:        &submitted,
		PricePerUnit:         floatPtr(1.20),
		CountryOfOrigin:      strPtr("Ghana"),
		Certifications:       "ISO 9001",
		MinimumOrderQuantity: int64Ptr(10000),
	}
}

func TestCheckMissingFields_Complete(t *testing.T) {
	store := newMemStore()
	id := storeQuote(store, completeSupplier(), completeQuote())
	svc := NewQuoteAuditService(&memQuoteRepo{s: store}, DefaultAuditConfig(), zap.NewNop())

	result, err := svc.CheckMissingFields(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusComplete, result.Status)
	assert.Empty(t, result.EmailBody)
	assert.Empty(t, result.MissingFields)
}

func TestCheckMissingFields_ComposesFollowUpEmail(t *testing.T) {
	store := newMemStore()
	supplier := completeSupplier()
	supplier.MainContactPhone = nil
	supplier.PaymentTerms = strPtr("")
	quote := completeQuote()
	quote.CountryOfOrigin = nil
	quote.Certifications = ""
	id := storeQuote(store, supplier, quote)
	svc := NewQuoteAuditService(&memQuoteRepo{s: store}, DefaultAuditConfig(), zap.NewNop())

	result, err := svc.CheckMissingFields(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusMissing, result.Status)
	assert.Equal(t, []string{"main_contact_phone", "payment_terms", "country_of_origin", "certifications"}, result.MissingFields)

	expected := "Dear Acme Foods Ltd,\n\n" +
		"We noticed that some information is missing from your quote. Could you please provide the following details?\n\n" +
		"- Main contact phone\n" +
		"- Payment terms\n" +
		"- Country of origin\n" +
		"- Certifications\n" +
		"\nThank you for your prompt attention to this matter.\n\n" +
		"Best regards,\n[Your Company Name]"
	assert.Equal(t, expected, result.EmailBody)
}

func TestCheckMissingFields_OnlyCountryOfOriginMissing(t *testing.T) {
	store := newMemStore()
	quote := completeQuote()
	quote.CountryOfOrigin = nil
	id := storeQuote(store, completeSupplier(), quote)
	svc := NewQuoteAuditService(&memQuoteRepo{s: store}, DefaultAuditConfig(), zap.NewNop())

	result, err := svc.CheckMissingFields(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusMissing, result.Status)
	assert.Equal(t, []string{"country_of_origin"}, result.MissingFields)
	assert.Contains(t, result.EmailBody, "\n- Country of origin\n")
	assert.Equal(t, 1, strings.Count(result.EmailBody, "\n- "))
}

func TestCheckMissingFields_ZeroValues(t *testing.T) {
	quote := completeQuote()
	quote.PricePerUnit = floatPtr(0)
	quote.MinimumOrderQuantity = int64Ptr(0)
	supplier := completeSupplier()
	q := &models.QuoteWithSupplier{Quote: quote, Supplier: &supplier}

	assert.Equal(t, []string{"price_per_unit", "minimum_order_quantity"}, MissingFields(q, true))
	assert.Empty(t, MissingFields(q, false))
}

func TestCheckMissingFields_CustomSignature(t *testing.T) {
	store := newMemStore()
	quote := completeQuote()
	quote.PricePerUnit = nil
	id := storeQuote(store, completeSupplier(), quote)
	svc := NewQuoteAuditService(&memQuoteRepo{s: store}, AuditConfig{ZeroIsMissing: true, Signature: "Procurement Team"}, zap.NewNop())

	result, err := svc.CheckMissingFields(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, result.EmailBody, "- Price per unit\n")
	assert.True(t, strings.HasSuffix(result.EmailBody, "Best regards,\nProcurement Team"))
}

func TestCheckMissingFields_UnknownQuote(t *testing.T) {
	svc := NewQuoteAuditService(&memQuoteRepo{s: newMemStore()}, DefaultAuditConfig(), zap.NewNop())

	_, err := svc.CheckMissingFields(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFieldLabel(t *testing.T) {
	tests := map[string]string{
		"country_of_origin":      "Country of origin",
		"main_contact_email":     "Main contact email",
		"certifications":         "Certifications",
		"minimum_order_quantity": "Minimum order quantity",
		"":                       "",
	}
	for field, want := range tests {
		assert.Equal(t, want, FieldLabel(field), field)
	}
}
