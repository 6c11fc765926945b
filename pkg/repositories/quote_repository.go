package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
)

// QuoteRepository provides data access for supplier quotes.
type QuoteRepository interface {
	// Create inserts a quote. Returns ErrNotFound when the RFQ or supplier
	// it references does not exist.
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	// GetWithSupplier loads the quote together with its supplier row.
	GetWithSupplier(ctx context.Context, id uuid.UUID) (*models.QuoteWithSupplier, error)
	// ListByRFQ returns the quotes of one RFQ, cheapest first. Quotes without
	// a price sort last.
	ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]*models.QuoteWithSupplier, error)
	Update(ctx context.Context, quote *models.Quote) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type quoteRepository struct{}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository() QuoteRepository {
	return &quoteRepository{}
}

var _ QuoteRepository = (*quoteRepository)(nil)

const quoteColumns = `q.id, q.rfq_id, q.supplier_company_name, q.date_submitted,
		       q.price_per_unit, q.country_of_origin, q.certifications,
		       q.minimum_order_quantity, q.created_at, q.updated_at`

const quoteWithSupplierColumns = quoteColumns + `,
		       s.company_name, s.main_contact_name, s.main_contact_email,
		       s.main_contact_phone, s.hq_address, s.payment_terms,
		       s.created_at, s.updated_at`

func (r *quoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}

	query := `
		INSERT INTO quotes (
			id, rfq_id, supplier_company_name, date_submitted, price_per_unit,
			country_of_origin, certifications, minimum_order_quantity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err = db.QueryRow(ctx, query,
		quote.ID,
		quote.RFQID,
		quote.SupplierCompanyName,
		quote.DateSubmitted,
		quote.PricePerUnit,
		quote.CountryOfOrigin,
		quote.Certifications,
		quote.MinimumOrderQuantity,
	).Scan(&quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create quote: %w", err)
	}

	return nil
}

func (r *quoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes q WHERE q.id = $1`

	quote, err := scanQuote(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	return quote, nil
}

func (r *quoteRepository) GetWithSupplier(ctx context.Context, id uuid.UUID) (*models.QuoteWithSupplier, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + quoteWithSupplierColumns + `
		FROM quotes q
		JOIN suppliers s ON s.company_name = q.supplier_company_name
		WHERE q.id = $1`

	quote, err := scanQuoteWithSupplier(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quote with supplier: %w", err)
	}

	return quote, nil
}

func (r *quoteRepository) ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]*models.QuoteWithSupplier, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + quoteWithSupplierColumns + `
		FROM quotes q
		JOIN suppliers s ON s.company_name = q.supplier_company_name
		WHERE q.rfq_id = $1
		ORDER BY q.price_per_unit ASC NULLS LAST, q.date_submitted ASC NULLS LAST, q.created_at`

	rows, err := db.Query(ctx, query, rfqID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*models.QuoteWithSupplier, 0)
	for rows.Next() {
		quote, err := scanQuoteWithSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}

	return quotes, nil
}

func (r *quoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE quotes
		SET date_submitted = $2, price_per_unit = $3, country_of_origin = $4,
		    certifications = $5, minimum_order_quantity = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = db.QueryRow(ctx, query,
		quote.ID,
		quote.DateSubmitted,
		quote.PricePerUnit,
		quote.CountryOfOrigin,
		quote.Certifications,
		quote.MinimumOrderQuantity,
	).Scan(&quote.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update quote: %w", err)
	}

	return nil
}

func (r *quoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	result, err := db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(
		&q.ID,
		&q.RFQID,
		&q.SupplierCompanyName,
		&q.DateSubmitted,
		&q.PricePerUnit,
		&q.CountryOfOrigin,
		&q.Certifications,
		&q.MinimumOrderQuantity,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func scanQuoteWithSupplier(row pgx.Row) (*models.QuoteWithSupplier, error) {
	var q models.QuoteWithSupplier
	var s models.Supplier
	err := row.Scan(
		&q.ID,
		&q.RFQID,
		&q.SupplierCompanyName,
		&q.DateSubmitted,
		&q.PricePerUnit,
		&q.CountryOfOrigin,
		&q.Certifications,
		&q.MinimumOrderQuantity,
		&q.CreatedAt,
		&q.UpdatedAt,
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
	q.Supplier = &s
	return &q, nil
}
