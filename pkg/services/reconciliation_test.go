package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
)

type reconcileFixture struct {
	store      *memStore
	uow        *fakeUnitOfWork
	reconciler ReconciliationService
}

func newReconcileFixture() *reconcileFixture {
	store := newMemStore()
	uow := &fakeUnitOfWork{store: store}
	return &reconcileFixture{
		store: store,
		uow:   uow,
		reconciler: NewReconciliationService(
			uow,
			&memRFQRepo{s: store},
			&memSupplierRepo{s: store},
			&memQuoteRepo{s: store},
			&memEmailRepo{s: store},
			zap.NewNop(),
		),
	}
}

func sampleStructuredQuote() *models.StructuredQuote {
	return &models.StructuredQuote{
		SupplierCompanyName:  strPtr("Acme Foods Ltd"),
		MainContactName:      strPtr("Jane Doe"),
		MainContactEmail:     strPtr("jane@acme.example"),
		MainContactPhone:     strPtr("+1 555 0100"),
		HQAddress:            strPtr("1 Harbour Road, Accra"),
		PaymentTerms:         strPtr("Net 30"),
		DateSubmitted:        strPtr("2024-03-14"),
		PricePerUnit:         floatPtr(1.20),
		CountryOfOrigin:      strPtr("Ghana"),
		Certifications:       []string{"ISO 9001", "Fairtrade"},
		MinimumOrderQuantity: int64Ptr(10000),
	}
}

func TestReconcile_CreatesSupplierQuoteAndEmail(t *testing.T) {
	f := newReconcileFixture()
	rfqID := f.store.addRFQ("Cocoa beans")

	result, err := f.reconciler.Reconcile(context.Background(), rfqID, sampleStructuredQuote(), "raw email text")
	require.NoError(t, err)
	assert.True(t, result.SupplierCreated)
	assert.Equal(t, "Acme Foods Ltd", result.SupplierCompanyName)
	assert.Equal(t, int32(1), f.uow.calls.Load())

	supplier := f.store.suppliers["Acme Foods Ltd"]
	assert.Equal(t, "Jane Doe", *supplier.MainContactName)
	assert.Equal(t, "Net 30", *supplier.PaymentTerms)

	quote := f.store.quotes[result.QuoteID]
	assert.Equal(t, rfqID, quote.RFQID)
	assert.Equal(t, 1.20, *quote.PricePerUnit)
	assert.Equal(t, "ISO 9001,Fairtrade", quote.Certifications)
	assert.Equal(t, int64(10000), *quote.MinimumOrderQuantity)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), *quote.DateSubmitted)

	require.Len(t, f.store.emails, 1)
	email := f.store.emails[0]
	assert.Equal(t, result.EmailID, email.ID)
	assert.Equal(t, result.QuoteID, *email.QuoteID)
	assert.Equal(t, "raw email text", email.Content)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(email.ExtractedData, &snapshot))
	assert.Equal(t, models.QuoteSchemaVersion, snapshot["schema_version"])
	assert.Equal(t, "jane@acme.example", snapshot["main_contact_email"])
	assert.Equal(t, []any{"ISO 9001", "Fairtrade"}, snapshot["certifications"])
}

func TestReconcile_ExistingSupplierNotOverwritten(t *testing.T) {
	f := newReconcileFixture()
	rfqID := f.store.addRFQ("Cocoa beans")
	f.store.suppliers["Acme Foods Ltd"] = models.Supplier{
		CompanyName:     "Acme Foods Ltd",
		MainContactName: strPtr("Original Contact"),
	}

	result, err := f.reconciler.Reconcile(context.Background(), rfqID, sampleStructuredQuote(), "email")
	require.NoError(t, err)
	assert.False(t, result.SupplierCreated)

	supplier := f.store.suppliers["Acme Foods Ltd"]
	assert.Equal(t, "Original Contact", *supplier.MainContactName)
	assert.Nil(t, supplier.PaymentTerms)
	assert.Len(t, f.store.quotes, 1)
}

func TestReconcile_SecondRFQReusesSupplierUnchanged(t *testing.T) {
	f := newReconcileFixture()
	cocoa := f.store.addRFQ("Cocoa beans")
	sugar := f.store.addRFQ("Cane sugar")

	first, err := f.reconciler.Reconcile(context.Background(), cocoa, sampleStructuredQuote(), "first email")
	require.NoError(t, err)
	assert.True(t, first.SupplierCreated)

	changed := sampleStructuredQuote()
	changed.MainContactName = strPtr("John Roe")
	changed.MainContactEmail = strPtr("john@acme.example")
	changed.PaymentTerms = strPtr("Net 60")
	second, err := f.reconciler.Reconcile(context.Background(), sugar, changed, "second email")
	require.NoError(t, err)
	assert.False(t, second.SupplierCreated)
	assert.Equal(t, "Acme Foods Ltd", second.SupplierCompanyName)

	supplier := f.store.suppliers["Acme Foods Ltd"]
	assert.Equal(t, "Jane Doe", *supplier.MainContactName)
	assert.Equal(t, "jane@acme.example", *supplier.MainContactEmail)
	assert.Equal(t, "Net 30", *supplier.PaymentTerms)
	assert.Len(t, f.store.suppliers, 1)

	require.Len(t, f.store.quotes, 2)
	assert.NotEqual(t, first.QuoteID, second.QuoteID)
	assert.Equal(t, cocoa, f.store.quotes[first.QuoteID].RFQID)
	assert.Equal(t, sugar, f.store.quotes[second.QuoteID].RFQID)
	assert.Len(t, f.store.emails, 2)
}

func TestReconcile_EmptyCertificationsStoredAsEmptyString(t *testing.T) {
	f := newReconcileFixture()
	rfqID := f.store.addRFQ("Cocoa beans")
	sq := sampleStructuredQuote()
	sq.Certifications = nil
	sq.PricePerUnit = nil

	result, err := f.reconciler.Reconcile(context.Background(), rfqID, sq, "email")
	require.NoError(t, err)

	quote := f.store.quotes[result.QuoteID]
	assert.Equal(t, "", quote.Certifications)
	assert.Nil(t, quote.PricePerUnit)
}

func TestReconcile_UnknownRFQWritesNothing(t *testing.T) {
	f := newReconcileFixture()

	_, err := f.reconciler.Reconcile(context.Background(), uuid.New(), sampleStructuredQuote(), "email")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	suppliers, quotes, emails := f.store.counts()
	assert.Zero(t, suppliers)
	assert.Zero(t, quotes)
	assert.Zero(t, emails)
}

func TestReconcile_MissingCompanyRejectedBeforeWrites(t *testing.T) {
	f := newReconcileFixture()
	rfqID := f.store.addRFQ("Cocoa beans")
	sq := sampleStructuredQuote()
	sq.SupplierCompanyName = nil

	_, err := f.reconciler.Reconcile(context.Background(), rfqID, sq, "email")
	require.ErrorIs(t, err, apperrors.ErrInvalidQuote)
	assert.Zero(t, f.uow.calls.Load())
}

func TestReconcile_InvalidDateRejected(t *testing.T) {
	f := newReconcileFixture()
	rfqID := f.store.addRFQ("Cocoa beans")
	sq := sampleStructuredQuote()
	sq.DateSubmitted = strPtr("14/03/2024")

	_, err := f.reconciler.Reconcile(context.Background(), rfqID, sq, "email")
	require.ErrorIs(t, err, apperrors.ErrInvalidQuote)
}

func TestReconcile_EmailFailureRollsBackSupplierAndQuote(t *testing.T) {
	f := newReconcileFixture()
	rfqID := f.store.addRFQ("Cocoa beans")
	f.store.createEmailErr = errors.New("disk full")

	_, err := f.reconciler.Reconcile(context.Background(), rfqID, sampleStructuredQuote(), "email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive email")

	suppliers, quotes, emails := f.store.counts()
	assert.Zero(t, suppliers)
	assert.Zero(t, quotes)
	assert.Zero(t, emails)
}
