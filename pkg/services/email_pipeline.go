package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/database"
	"github.com/ekaya-inc/rfqportal/pkg/extraction"
	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/logging"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// ScopeProvider hands out contexts carrying a database scope.
// Satisfied by *database.ScopeProvider.
type ScopeProvider interface {
	WithScope(ctx context.Context) (context.Context, func(), error)
}

// EmailSubmission is one supplier email to process against an RFQ.
type EmailSubmission struct {
	Ref   string    `json:"ref,omitempty" yaml:"ref"`
	RFQID uuid.UUID `json:"rfq_id" yaml:"rfq_id"`
	Text  string    `json:"email_text" yaml:"email_text"`
}

// BatchResult pairs a submission reference with its processing result.
type BatchResult struct {
	Ref    string                `json:"ref"`
	Result *models.ProcessResult `json:"result"`
}

// EmailPipeline is the caller-facing entry point for supplier emails.
type EmailPipeline interface {
	// ExtractEmailData turns email text into a structured quote without
	// touching the database. Errors are *extraction.Failure.
	ExtractEmailData(ctx context.Context, emailText string) (*models.StructuredQuote, error)

	// ProcessEmailText extracts the quote and reconciles it against rfqID.
	// Failures are reported in the result, never as a Go error.
	ProcessEmailText(ctx context.Context, emailText string, rfqID uuid.UUID) *models.ProcessResult

	// CheckMissingFieldsAndGenerateEmail audits a stored quote. Failures are
	// reported with AuditStatusFail.
	CheckMissingFieldsAndGenerateEmail(ctx context.Context, quoteID uuid.UUID) *models.AuditResult

	// ProcessBatch runs ProcessEmailText over independent submissions with
	// bounded parallelism. Results keep submission order.
	ProcessBatch(ctx context.Context, submissions []EmailSubmission) []BatchResult
}

type emailPipeline struct {
	extractor  extraction.Extractor
	reconciler ReconciliationService
	auditor    QuoteAuditService
	rfqRepo    repositories.RFQRepository
	scopes     ScopeProvider
	pool       *llm.WorkerPool
	logger     *zap.Logger
}

// NewEmailPipeline creates a new EmailPipeline.
func NewEmailPipeline(
	extractor extraction.Extractor,
	reconciler ReconciliationService,
	auditor QuoteAuditService,
	rfqRepo repositories.RFQRepository,
	scopes ScopeProvider,
	pool *llm.WorkerPool,
	logger *zap.Logger,
) EmailPipeline {
	return &emailPipeline{
		extractor:  extractor,
		reconciler: reconciler,
		auditor:    auditor,
		rfqRepo:    rfqRepo,
		scopes:     scopes,
		pool:       pool,
		logger:     logger.Named("email-pipeline"),
	}
}

var _ EmailPipeline = (*emailPipeline)(nil)

func (p *emailPipeline) ExtractEmailData(ctx context.Context, emailText string) (*models.StructuredQuote, error) {
	quote, err := p.extractor.Extract(ctx, emailText)
	if err != nil {
		p.logger.Warn("Extraction failed",
			zap.String("email", logging.TruncateEmail(emailText)),
			zap.Error(err))
		return nil, err
	}
	return quote, nil
}

func (p *emailPipeline) ProcessEmailText(ctx context.Context, emailText string, rfqID uuid.UUID) *models.ProcessResult {
	result := p.processEmailText(ctx, emailText, rfqID)
	EmailsProcessedTotal.WithLabelValues(string(result.Status), string(result.Reason)).Inc()
	return result
}

func (p *emailPipeline) processEmailText(ctx context.Context, emailText string, rfqID uuid.UUID) *models.ProcessResult {
	// Reject unknown RFQs before paying for an LLM call.
	if err := p.withScope(ctx, func(ctx context.Context) error {
		_, err := p.rfqRepo.GetByID(ctx, rfqID)
		return err
	}); err != nil {
		return p.failure(rfqID, err)
	}

	quote, err := p.ExtractEmailData(ctx, emailText)
	if err != nil {
		return p.failure(rfqID, err)
	}

	var reconciled *models.ReconciliationResult
	if err := p.withScope(ctx, func(ctx context.Context) error {
		var err error
		reconciled, err = p.reconciler.Reconcile(ctx, rfqID, quote, emailText)
		return err
	}); err != nil {
		return p.failure(rfqID, err)
	}

	return &models.ProcessResult{
		Status:          models.ProcessStatusSuccess,
		QuoteID:         &reconciled.QuoteID,
		EmailID:         &reconciled.EmailID,
		SupplierCreated: reconciled.SupplierCreated,
	}
}

func (p *emailPipeline) CheckMissingFieldsAndGenerateEmail(ctx context.Context, quoteID uuid.UUID) *models.AuditResult {
	var result *models.AuditResult
	err := p.withScope(ctx, func(ctx context.Context) error {
		var err error
		result, err = p.auditor.CheckMissingFields(ctx, quoteID)
		return err
	})
	if err != nil {
		message := "Failed to check quote."
		if errors.Is(err, apperrors.ErrNotFound) {
			message = "Quote not found."
		} else {
			p.logger.Error("Missing-field audit failed",
				zap.String("quote_id", quoteID.String()),
				zap.Error(err))
		}
		result = &models.AuditResult{Status: models.AuditStatusFail, Message: message}
	}
	AuditsTotal.WithLabelValues(string(result.Status)).Inc()
	return result
}

func (p *emailPipeline) ProcessBatch(ctx context.Context, submissions []EmailSubmission) []BatchResult {
	// Each unit of work acquires its own connection.
	ctx = database.ClearScope(ctx)

	items := make([]llm.WorkItem[*models.ProcessResult], len(submissions))
	for i, sub := range submissions {
		ref := sub.Ref
		if ref == "" {
			ref = strconv.Itoa(i)
		}
		items[i] = llm.WorkItem[*models.ProcessResult]{
			ID: ref,
			Execute: func(ctx context.Context) (*models.ProcessResult, error) {
				return p.ProcessEmailText(ctx, sub.Text, sub.RFQID), nil
			},
		}
	}

	results := llm.Process(ctx, p.pool, items, func(completed, total int) {
		p.logger.Debug("Batch progress", zap.Int("completed", completed), zap.Int("total", total))
	})

	out := make([]BatchResult, len(results))
	for i, r := range results {
		result := r.Result
		if r.Err != nil {
			result = &models.ProcessResult{
				Status:  models.ProcessStatusFail,
				Reason:  models.FailureReasonInternal,
				Message: r.Err.Error(),
			}
		}
		out[i] = BatchResult{Ref: r.ID, Result: result}
	}
	return out
}

func (p *emailPipeline) withScope(ctx context.Context, fn func(ctx context.Context) error) error {
	scoped, cleanup, err := p.scopes.WithScope(ctx)
	if err != nil {
		return fmt.Errorf("acquire database scope: %w", err)
	}
	defer cleanup()
	return fn(scoped)
}

// failure maps a processing error onto the result callers see.
func (p *emailPipeline) failure(rfqID uuid.UUID, err error) *models.ProcessResult {
	result := &models.ProcessResult{Status: models.ProcessStatusFail}

	var failure *extraction.Failure
	switch {
	case errors.As(err, &failure):
		result.Reason = models.FailureReasonExtraction
		result.Message = "Failed to extract data from email: " + failure.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		result.Reason = models.FailureReasonNotFound
		result.Message = fmt.Sprintf("RFQ %s not found.", rfqID)
	case errors.Is(err, apperrors.ErrInvalidQuote):
		result.Reason = models.FailureReasonInvalidQuote
		result.Message = err.Error()
	default:
		result.Reason = models.FailureReasonInternal
		result.Message = "Failed to process email."
		p.logger.Error("Email processing failed",
			zap.String("rfq_id", rfqID.String()),
			zap.Error(err))
	}
	return result
}
