package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// QuoteService provides read access to quotes and manual corrections.
// Quotes are only created by processing supplier emails.
type QuoteService interface {
	// ListForRFQ returns the comparison view of an RFQ: its quotes with
	// supplier details, cheapest first.
	ListForRFQ(ctx context.Context, rfqID uuid.UUID) ([]*models.QuoteWithSupplier, error)
	Get(ctx context.Context, id uuid.UUID) (*models.QuoteWithSupplier, error)
	Update(ctx context.Context, id uuid.UUID, update *models.QuoteUpdate) (*models.Quote, error)
	// ListEmails returns the archived emails a quote was extracted from.
	ListEmails(ctx context.Context, id uuid.UUID) ([]*models.Email, error)
}

type quoteService struct {
	rfqRepo   repositories.RFQRepository
	quoteRepo repositories.QuoteRepository
	emailRepo repositories.EmailRepository
	logger    *zap.Logger
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(
	rfqRepo repositories.RFQRepository,
	quoteRepo repositories.QuoteRepository,
	emailRepo repositories.EmailRepository,
	logger *zap.Logger,
) QuoteService {
	return &quoteService{
		rfqRepo:   rfqRepo,
		quoteRepo: quoteRepo,
		emailRepo: emailRepo,
		logger:    logger.Named("quote-service"),
	}
}

var _ QuoteService = (*quoteService)(nil)

func (s *quoteService) ListForRFQ(ctx context.Context, rfqID uuid.UUID) ([]*models.QuoteWithSupplier, error) {
	// Distinguish an unknown RFQ from one without quotes.
	if _, err := s.rfqRepo.GetByID(ctx, rfqID); err != nil {
		return nil, err
	}
	return s.quoteRepo.ListByRFQ(ctx, rfqID)
}

func (s *quoteService) Get(ctx context.Context, id uuid.UUID) (*models.QuoteWithSupplier, error) {
	return s.quoteRepo.GetWithSupplier(ctx, id)
}

func (s *quoteService) Update(ctx context.Context, id uuid.UUID, update *models.QuoteUpdate) (*models.Quote, error) {
	if update == nil || update.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrInvalidUpdate)
	}
	if update.PricePerUnit != nil && *update.PricePerUnit < 0 {
		return nil, fmt.Errorf("%w: price_per_unit must not be negative", apperrors.ErrInvalidUpdate)
	}
	if update.MinimumOrderQuantity != nil && *update.MinimumOrderQuantity < 0 {
		return nil, fmt.Errorf("%w: minimum_order_quantity must not be negative", apperrors.ErrInvalidUpdate)
	}

	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(quote)
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("Corrected quote", zap.String("quote_id", id.String()))
	return quote, nil
}

func (s *quoteService) ListEmails(ctx context.Context, id uuid.UUID) ([]*models.Email, error) {
	if _, err := s.quoteRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.emailRepo.ListByQuote(ctx, id)
}
