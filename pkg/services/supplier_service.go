package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// SupplierService provides administration of suppliers.
type SupplierService interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	Get(ctx context.Context, companyName string) (*models.Supplier, error)
	List(ctx context.Context) ([]*models.Supplier, error)
	// Update applies the non-nil fields of update and returns the stored supplier.
	Update(ctx context.Context, companyName string, update *models.SupplierUpdate) (*models.Supplier, error)
	// Delete removes the supplier along with its quotes.
	Delete(ctx context.Context, companyName string) error
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new SupplierService.
func NewSupplierService(supplierRepo repositories.SupplierRepository, logger *zap.Logger) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		logger:       logger.Named("supplier-service"),
	}
}

var _ SupplierService = (*supplierService)(nil)

func (s *supplierService) Create(ctx context.Context, supplier *models.Supplier) error {
	supplier.CompanyName = strings.TrimSpace(supplier.CompanyName)
	if supplier.CompanyName == "" {
		return apperrors.ErrSupplierCompanyRequired
	}

	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return err
	}

	s.logger.Info("Created supplier", zap.String("company_name", supplier.CompanyName))
	return nil
}

func (s *supplierService) Get(ctx context.Context, companyName string) (*models.Supplier, error) {
	return s.supplierRepo.GetByName(ctx, companyName)
}

func (s *supplierService) List(ctx context.Context) ([]*models.Supplier, error) {
	return s.supplierRepo.List(ctx)
}

func (s *supplierService) Update(ctx context.Context, companyName string, update *models.SupplierUpdate) (*models.Supplier, error) {
	if update == nil || update.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrInvalidUpdate)
	}

	supplier, err := s.supplierRepo.GetByName(ctx, companyName)
	if err != nil {
		return nil, err
	}

	update.Apply(supplier)
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}

	return supplier, nil
}

func (s *supplierService) Delete(ctx context.Context, companyName string) error {
	if err := s.supplierRepo.Delete(ctx, companyName); err != nil {
		return err
	}

	s.logger.Info("Deleted supplier", zap.String("company_name", companyName))
	return nil
}
