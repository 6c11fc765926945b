package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/database"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// ReconciliationService persists an extracted quote against an RFQ.
type ReconciliationService interface {
	// Reconcile resolves the RFQ, gets or creates the supplier, creates the
	// quote and archives the email, all in one transaction. Supplier contact
	// details are only written when the supplier is new.
	// Returns ErrNotFound when the RFQ does not exist and ErrInvalidQuote when
	// the quote names no supplier. Nothing is written on error.
	Reconcile(ctx context.Context, rfqID uuid.UUID, quote *models.StructuredQuote, emailText string) (*models.ReconciliationResult, error)
}

type reconciliationService struct {
	uow          database.UnitOfWork
	rfqRepo      repositories.RFQRepository
	supplierRepo repositories.SupplierRepository
	quoteRepo    repositories.QuoteRepository
	emailRepo    repositories.EmailRepository
	logger       *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	uow database.UnitOfWork,
	rfqRepo repositories.RFQRepository,
	supplierRepo repositories.SupplierRepository,
	quoteRepo repositories.QuoteRepository,
	emailRepo repositories.EmailRepository,
	logger *zap.Logger,
) ReconciliationService {
	return &reconciliationService{
		uow:          uow,
		rfqRepo:      rfqRepo,
		supplierRepo: supplierRepo,
		quoteRepo:    quoteRepo,
		emailRepo:    emailRepo,
		logger:       logger.Named("reconciliation"),
	}
}

var _ ReconciliationService = (*reconciliationService)(nil)

func (s *reconciliationService) Reconcile(ctx context.Context, rfqID uuid.UUID, sq *models.StructuredQuote, emailText string) (*models.ReconciliationResult, error) {
	if sq == nil || sq.CompanyName() == "" {
		return nil, fmt.Errorf("%w: supplier_company_name is required", apperrors.ErrInvalidQuote)
	}
	submitted, err := sq.SubmittedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidQuote, err)
	}
	snapshot, err := sq.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidQuote, err)
	}

	var result *models.ReconciliationResult
	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
		if err != nil {
			return fmt.Errorf("resolve rfq %s: %w", rfqID, err)
		}

		supplier, created, err := s.supplierRepo.GetOrCreate(ctx, sq.Supplier())
		if err != nil {
			return fmt.Errorf("resolve supplier %q: %w", sq.CompanyName(), err)
		}

		quote := &models.Quote{
			RFQID:                rfq.ID,
			SupplierCompanyName:  supplier.CompanyName,
			DateSubmitted:        submitted,
			PricePerUnit:         sq.PricePerUnit,
			CountryOfOrigin:      sq.CountryOfOrigin,
			Certifications:       models.JoinCertifications(sq.Certifications),
			MinimumOrderQuantity: sq.MinimumOrderQuantity,
		}
		if err := s.quoteRepo.Create(ctx, quote); err != nil {
			return fmt.Errorf("create quote: %w", err)
		}

		email := &models.Email{
			QuoteID:       &quote.ID,
			Content:       emailText,
			ExtractedData: snapshot,
		}
		if err := s.emailRepo.Create(ctx, email); err != nil {
			return fmt.Errorf("archive email: %w", err)
		}

		result = &models.ReconciliationResult{
			QuoteID:             quote.ID,
			EmailID:             email.ID,
			SupplierCompanyName: supplier.CompanyName,
			SupplierCreated:     created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.SupplierCreated {
		SuppliersCreatedTotal.Inc()
	}
	s.logger.Info("Reconciled quote",
		zap.String("rfq_id", rfqID.String()),
		zap.String("quote_id", result.QuoteID.String()),
		zap.String("supplier", result.SupplierCompanyName),
		zap.Bool("supplier_created", result.SupplierCreated))

	return result, nil
}
