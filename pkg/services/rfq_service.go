package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// RFQService provides administration of requests for quotation.
type RFQService interface {
	Create(ctx context.Context, rfq *models.RFQ) error
	Get(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	List(ctx context.Context) ([]*models.RFQ, error)
	Update(ctx context.Context, id uuid.UUID, update *models.RFQUpdate) (*models.RFQ, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type rfqService struct {
	rfqRepo repositories.RFQRepository
	logger  *zap.Logger
}

// NewRFQService creates a new RFQService.
func NewRFQService(rfqRepo repositories.RFQRepository, logger *zap.Logger) RFQService {
	return &rfqService{
		rfqRepo: rfqRepo,
		logger:  logger.Named("rfq-service"),
	}
}

var _ RFQService = (*rfqService)(nil)

func (s *rfqService) Create(ctx context.Context, rfq *models.RFQ) error {
	rfq.Item = strings.TrimSpace(rfq.Item)
	if rfq.Item == "" {
		return apperrors.ErrRFQItemRequired
	}

	if err := s.rfqRepo.Create(ctx, rfq); err != nil {
		return err
	}

	s.logger.Info("Created RFQ", zap.String("rfq_id", rfq.ID.String()), zap.String("item", rfq.Item))
	return nil
}

func (s *rfqService) Get(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	return s.rfqRepo.GetByID(ctx, id)
}

func (s *rfqService) List(ctx context.Context) ([]*models.RFQ, error) {
	return s.rfqRepo.List(ctx)
}

func (s *rfqService) Update(ctx context.Context, id uuid.UUID, update *models.RFQUpdate) (*models.RFQ, error) {
	if update == nil || update.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrInvalidUpdate)
	}
	if update.Item != nil && strings.TrimSpace(*update.Item) == "" {
		return nil, apperrors.ErrRFQItemRequired
	}

	rfq, err := s.rfqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(rfq)
	if err := s.rfqRepo.Update(ctx, rfq); err != nil {
		return nil, err
	}

	return rfq, nil
}

func (s *rfqService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rfqRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Deleted RFQ", zap.String("rfq_id", id.String()))
	return nil
}
