package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// passthroughScope stands in for the database scope middleware.
func passthroughScope(next http.HandlerFunc) http.HandlerFunc {
	return next
}

// mockRFQService is a configurable RFQService for handler tests.
type mockRFQService struct {
	rfqs       []*models.RFQ
	rfq        *models.RFQ
	err        error
	created    *models.RFQ
	lastUpdate *models.RFQUpdate
	deletedID  uuid.UUID
}

func (m *mockRFQService) Create(ctx context.Context, rfq *models.RFQ) error {
	if m.err != nil {
		return m.err
	}
	if rfq.ID == uuid.Nil {
		rfq.ID = uuid.New()
	}
	m.created = rfq
	return nil
}

func (m *mockRFQService) Get(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rfq, nil
}

func (m *mockRFQService) List(ctx context.Context) ([]*models.RFQ, error) {
	return m.rfqs, m.err
}

func (m *mockRFQService) Update(ctx context.Context, id uuid.UUID, update *models.RFQUpdate) (*models.RFQ, error) {
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.rfq, nil
}

func (m *mockRFQService) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.err
}

var _ services.RFQService = (*mockRFQService)(nil)

// mockSupplierService is a configurable SupplierService for handler tests.
type mockSupplierService struct {
	suppliers   []*models.Supplier
	supplier    *models.Supplier
	err         error
	created     *models.Supplier
	lastName    string
	lastUpdate  *models.SupplierUpdate
	deletedName string
}

func (m *mockSupplierService) Create(ctx context.Context, supplier *models.Supplier) error {
	m.created = supplier
	return m.err
}

func (m *mockSupplierService) Get(ctx context.Context, companyName string) (*models.Supplier, error) {
	m.lastName = companyName
	if m.err != nil {
		return nil, m.err
	}
	return m.supplier, nil
}

func (m *mockSupplierService) List(ctx context.Context) ([]*models.Supplier, error) {
	return m.suppliers, m.err
}

func (m *mockSupplierService) Update(ctx context.Context, companyName string, update *models.SupplierUpdate) (*models.Supplier, error) {
	m.lastName = companyName
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.supplier, nil
}

func (m *mockSupplierService) Delete(ctx context.Context, companyName string) error {
	m.deletedName = companyName
	return m.err
}

var _ services.SupplierService = (*mockSupplierService)(nil)

// mockQuoteService is a configurable QuoteService for handler tests.
type mockQuoteService struct {
	quotes     []*models.QuoteWithSupplier
	quote      *models.QuoteWithSupplier
	updated    *models.Quote
	emails     []*models.Email
	err        error
	lastUpdate *models.QuoteUpdate
}

func (m *mockQuoteService) ListForRFQ(ctx context.Context, rfqID uuid.UUID) ([]*models.QuoteWithSupplier, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes, nil
}

func (m *mockQuoteService) Get(ctx context.Context, id uuid.UUID) (*models.QuoteWithSupplier, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.quote, nil
}

func (m *mockQuoteService) Update(ctx context.Context, id uuid.UUID, update *models.QuoteUpdate) (*models.Quote, error) {
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	return m.updated, nil
}

func (m *mockQuoteService) ListEmails(ctx context.Context, id uuid.UUID) ([]*models.Email, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.emails, nil
}

var _ services.QuoteService = (*mockQuoteService)(nil)

// mockEmailPipeline is a configurable EmailPipeline for handler tests.
type mockEmailPipeline struct {
	quote         *models.StructuredQuote
	extractErr    error
	processResult *models.ProcessResult
	auditResult   *models.AuditResult

	lastText    string
	lastRFQID   uuid.UUID
	lastQuoteID uuid.UUID
	batch       []services.EmailSubmission
	hadDeadline bool

	batchDelay    time.Duration
	batchDeadline time.Time
}

func (m *mockEmailPipeline) ExtractEmailData(ctx context.Context, emailText string) (*models.StructuredQuote, error) {
	m.lastText = emailText
	_, m.hadDeadline = ctx.Deadline()
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.quote, nil
}

func (m *mockEmailPipeline) ProcessEmailText(ctx context.Context, emailText string, rfqID uuid.UUID) *models.ProcessResult {
	m.lastText = emailText
	m.lastRFQID = rfqID
	_, m.hadDeadline = ctx.Deadline()
	return m.processResult
}

func (m *mockEmailPipeline) CheckMissingFieldsAndGenerateEmail(ctx context.Context, quoteID uuid.UUID) *models.AuditResult {
	m.lastQuoteID = quoteID
	return m.auditResult
}

func (m *mockEmailPipeline) ProcessBatch(ctx context.Context, submissions []services.EmailSubmission) []services.BatchResult {
	m.batch = submissions
	m.batchDeadline, _ = ctx.Deadline()
	if m.batchDelay > 0 {
		time.Sleep(m.batchDelay)
	}
	results := make([]services.BatchResult, len(submissions))
	for i, sub := range submissions {
		status := models.ProcessStatusSuccess
		if sub.Text == "bad" {
			status = models.ProcessStatusFail
		}
		results[i] = services.BatchResult{Ref: sub.Ref, Result: &models.ProcessResult{Status: status}}
	}
	return results
}

var _ services.EmailPipeline = (*mockEmailPipeline)(nil)

// mockPinger implements Pinger.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
