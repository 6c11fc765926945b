package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
)

// EmailRepository archives supplier emails. Rows are append-only.
type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.Email, error)
}

type emailRepository struct{}

// NewEmailRepository creates a new EmailRepository.
func NewEmailRepository() EmailRepository {
	return &emailRepository{}
}

var _ EmailRepository = (*emailRepository)(nil)

func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	db, err := querierFromContext(ctx)
	if err != nil {
		return err
	}

	if email.ID == uuid.Nil {
		email.ID = uuid.New()
	}

	query := `
		INSERT INTO emails (id, quote_id, content, extracted_data)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err = db.QueryRow(ctx, query,
		email.ID,
		email.QuoteID,
		email.Content,
		[]byte(email.ExtractedData),
	).Scan(&email.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to create email: %w", err)
	}

	return nil
}

func (r *emailRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.Email, error) {
	db, err := querierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, quote_id, content, extracted_data, created_at
		FROM emails
		WHERE quote_id = $1
		ORDER BY created_at, id`

	rows, err := db.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	emails := make([]*models.Email, 0)
	for rows.Next() {
		var e models.Email
		var extracted []byte
		if err := rows.Scan(&e.ID, &e.QuoteID, &e.Content, &extracted, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		e.ExtractedData = extracted
		emails = append(emails, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emails: %w", err)
	}

	return emails, nil
}
