package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/retry"
)

// SupplierRepository provides data access for suppliers.
type SupplierRepository interface {
	// GetOrCreate returns the supplier named candidate.CompanyName, creating it
	// from candidate when absent. created reports whether this call inserted it.
	// An existing supplier is returned unchanged.
	GetOrCreate(ctx context.Context, candidate *models.Supplier) (supplier *models.Supplier, created bool, err error)
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByName(ctx context.Context, companyName string) (*models.Supplier, error)
	List(ctx context.Context) ([]*models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, companyName string) error
}

type supplierRepository struct {
	raceRetry *retry.Config
}

// NewSupplierRepository creates a new SupplierRepository.
func NewSupplierRepository() SupplierRepository {
	return &supplierRepository{
		raceRetry: &retry.Config{
			MaxRetries:   3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     100 * time.Millisecond,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		},
	}
}

var _ SupplierRepository = (*supplierRepository)(nil)

const supplierColumns = `company_name, main_contact_name, main_contact_email,
		       main_contact_phone, hq_address, payment_terms, created_at, updated_at`

func (r *supplierRepository) GetOrCreate(ctx context.Context, candidate *models.Supplier) (*models.Supplier, bool, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO suppliers (
			company_name, main_contact_name, main_contact_email,
			main_contact_phone, hq_address, payment_terms
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_name) DO NOTHING
		RETURNING created_at, updated_at`

	inserted := *candidate
	err = db.QueryRow(ctx, query,
		candidate.CompanyName,
		candidate.MainContactName,
		candidate.MainContactEmail,
		candidate.MainContactPhone,
		candidate.HQAddress,
		candidate.PaymentTerms,
	).Scan(&inserted.CreatedAt, &inserted.UpdatedAt)
	if err == nil {
		return &inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert supplier: %w", err)
	}

	// Conflict: another unit of work owns the name. Its row may not be
	// visible yet if that transaction is still committing.
	existing, err := retry.DoWhen(ctx, r.raceRetry, func(err error) bool {
		return errors.Is(err, apperrors.ErrDuplicateSupplierRace)
	}, func() (*models.Supplier, error) {
		s, err := r.GetByName(ctx, candidate.CompanyName)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrDuplicateSupplierRace
		}
		return s, err
	})
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO suppliers (
			company_name, main_contact_name, main_contact_email,
			main_contact_phone, hq_address, payment_terms
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err = db.QueryRow(ctx, query,
		supplier.CompanyName,
		supplier.MainContactName,
		supplier.MainContactEmail,
		supplier.MainContactPhone,
		supplier.HQAddress,
		supplier.PaymentTerms,
	).Scan(&supplier.CreatedAt, &supplier.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create supplier: %w", err)
	}

	return nil
}

func (r *supplierRepository) GetByName(ctx context.Context, companyName string) (*models.Supplier, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE company_name = $1`

	supplier, err := scanSupplier(db.QueryRow(ctx, query, companyName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	return supplier, nil
}

func (r *supplierRepository) List(ctx context.Context) ([]*models.Supplier, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY company_name`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]*models.Supplier, 0)
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suppliers: %w", err)
	}

	return suppliers, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE suppliers
		SET main_contact_name = $2, main_contact_email = $3, main_contact_phone = $4,
		    hq_address = $5, payment_terms = $6, updated_at = NOW()
		WHERE company_name = $1
		RETURNING updated_at`

	err = db.QueryRow(ctx, query,
		supplier.CompanyName,
		supplier.MainContactName,
		supplier.MainContactEmail,
		supplier.MainContactPhone,
		supplier.HQAddress,
		supplier.PaymentTerms,
	).Scan(&supplier.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update supplier: %w", err)
	}

	return nil
}

func (r *supplierRepository) Delete(ctx context.Context, companyName string) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	result, err := db.Exec(ctx, `DELETE FROM suppliers WHERE company_name = $1`, companyName)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanSupplier(row pgx.Row) (*models.Supplier, error) {
	var s models.Supplier
	err := row.Scan(
		&s.CompanyName,
		&s.MainContactName,
		&s.MainContactEmail,
		&s.MainContactPhone,
		&s.HQAddress,
		&s.PaymentTerms,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
