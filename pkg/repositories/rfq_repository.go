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

// RFQRepository provides data access for requests for quotation.
type RFQRepository interface {
	Create(ctx context.Context, rfq *models.RFQ) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	List(ctx context.Context) ([]*models.RFQ, error)
	Update(ctx context.Context, rfq *models.RFQ) error
	// Delete removes the RFQ; its quotes and their archived emails go with it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type rfqRepository struct{}

// NewRFQRepository creates a new RFQRepository.
func NewRFQRepository() RFQRepository {
	return &rfqRepository{}
}

var _ RFQRepository = (*rfqRepository)(nil)

const rfqColumns = `id, item, due_date, amount_required, ship_to_location,
		       required_certifications, created_at, updated_at`

func (r *rfqRepository) Create(ctx context.Context, rfq *models.RFQ) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	if rfq.ID == uuid.Nil {
		rfq.ID = uuid.New()
	}

	query := `
		INSERT INTO rfqs (
			id, item, due_date, amount_required, ship_to_location, required_certifications
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err = db.QueryRow(ctx, query,
		rfq.ID,
		rfq.Item,
		rfq.DueDate,
		rfq.AmountRequired,
		rfq.ShipToLocation,
		rfq.RequiredCertifications,
	).Scan(&rfq.CreatedAt, &rfq.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create rfq: %w", err)
	}

	return nil
}

func (r *rfqRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + rfqColumns + ` FROM rfqs WHERE id = $1`

	rfq, err := scanRFQ(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rfq: %w", err)
	}

	return rfq, nil
}

func (r *rfqRepository) List(ctx context.Context) ([]*models.RFQ, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + rfqColumns + ` FROM rfqs ORDER BY created_at DESC, id`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rfqs: %w", err)
	}
	defer rows.Close()

	rfqs := make([]*models.RFQ, 0)
	for rows.Next() {
		rfq, err := scanRFQ(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rfq: %w", err)
		}
		rfqs = append(rfqs, rfq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rfqs: %w", err)
	}

	return rfqs, nil
}

func (r *rfqRepository) Update(ctx context.Context, rfq *models.RFQ) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE rfqs
		SET item = $2, due_date = $3, amount_required = $4, ship_to_location = $5,
		    required_certifications = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = db.QueryRow(ctx, query,
		rfq.ID,
		rfq.Item,
		rfq.DueDate,
		rfq.AmountRequired,
		rfq.ShipToLocation,
		rfq.RequiredCertifications,
	).Scan(&rfq.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update rfq: %w", err)
	}

	return nil
}

func (r *rfqRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	result, err := db.Exec(ctx, `DELETE FROM rfqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rfq: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanRFQ(row pgx.Row) (*models.RFQ, error) {
	var rfq models.RFQ
	err := row.Scan(
		&rfq.ID,
		&rfq.Item,
		&rfq.DueDate,
		&rfq.AmountRequired,
		&rfq.ShipToLocation,
		&rfq.RequiredCertifications,
		&rfq.CreatedAt,
		&rfq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}
