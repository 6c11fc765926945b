package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// DefaultAuditSignature closes follow-up emails when no signature is configured.
const DefaultAuditSignature = "[Your Company Name]"

// AuditConfig controls how quotes are audited for missing information.
type AuditConfig struct {
	// ZeroIsMissing treats 0 prices and quantities as missing, not just null.
	ZeroIsMissing bool
	// Signature is the closing line of follow-up emails.
	Signature string
}

// DefaultAuditConfig returns the audit settings used when none are configured.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		ZeroIsMissing: true,
		Signature:     DefaultAuditSignature,
	}
}

// auditedFields is the fixed order fields are checked and listed in.
// Supplier contact fields come first, then the quote fields.
var auditedFields = []string{
	"main_contact_name",
	"main_contact_email",
	"main_contact_phone",
	"hq_address",
	"payment_terms",
	"date_submitted",
	"price_per_unit",
	"country_of_origin",
	"certifications",
	"minimum_order_quantity",
}

// QuoteAuditService finds missing information on a stored quote and drafts
// the follow-up email asking the supplier for it.
type QuoteAuditService interface {
	// CheckMissingFields returns AuditStatusComplete when every audited field is
	// present, otherwise AuditStatusMissing with the missing field names and
	// the follow-up email body. Returns ErrNotFound for an unknown quote.
	CheckMissingFields(ctx context.Context, quoteID uuid.UUID) (*models.AuditResult, error)
}

type quoteAuditService struct {
	quoteRepo repositories.QuoteRepository
	config    AuditConfig
	logger    *zap.Logger
}

// NewQuoteAuditService creates a new QuoteAuditService.
func NewQuoteAuditService(quoteRepo repositories.QuoteRepository, config AuditConfig, logger *zap.Logger) QuoteAuditService {
	if config.Signature == "" {
		config.Signature = DefaultAuditSignature
	}
	return &quoteAuditService{
		quoteRepo: quoteRepo,
		config:    config,
		logger:    logger.Named("quote-audit"),
	}
}

var _ QuoteAuditService = (*quoteAuditService)(nil)

func (s *quoteAuditService) CheckMissingFields(ctx context.Context, quoteID uuid.UUID) (*models.AuditResult, error) {
	quote, err := s.quoteRepo.GetWithSupplier(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load quote %s: %w", quoteID, err)
	}

	missing := MissingFields(quote, s.config.ZeroIsMissing)
	if len(missing) == 0 {
		return &models.AuditResult{Status: models.AuditStatusComplete, Message: "No missing fields."}, nil
	}

	s.logger.Debug("Quote has missing fields",
		zap.String("quote_id", quoteID.String()),
		zap.Strings("missing_fields", missing))

	return &models.AuditResult{
		Status:        models.AuditStatusMissing,
		MissingFields: missing,
		EmailBody:     FollowUpEmail(quote.SupplierCompanyName, missing, s.config.Signature),
	}, nil
}

// MissingFields lists the audited fields of quote that are null or empty, in
// audit order. With zeroIsMissing, 0 prices and quantities also count.
func MissingFields(quote *models.QuoteWithSupplier, zeroIsMissing bool) []string {
	supplier := quote.Supplier
	if supplier == nil {
		supplier = &models.Supplier{CompanyName: quote.SupplierCompanyName}
	}

	present := map[string]bool{
		"main_contact_name":      hasText(supplier.MainContactName),
		"main_contact_email":     hasText(supplier.MainContactEmail),
		"main_contact_phone":     hasText(supplier.MainContactPhone),
		"hq_address":             hasText(supplier.HQAddress),
		"payment_terms":          hasText(supplier.PaymentTerms),
		"date_submitted":         quote.DateSubmitted != nil,
		"price_per_unit":         quote.PricePerUnit != nil && !(zeroIsMissing && *quote.PricePerUnit == 0),
		"country_of_origin":      hasText(quote.CountryOfOrigin),
		"certifications":         quote.Certifications != "",
		"minimum_order_quantity": quote.MinimumOrderQuantity != nil && !(zeroIsMissing && *quote.MinimumOrderQuantity == 0),
	}

	missing := make([]string, 0)
	for _, field := range auditedFields {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	return missing
}

// FieldLabel turns a field name into the label shown in follow-up emails:
// underscores become spaces and the first letter is upper-cased.
func FieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// FollowUpEmail renders the email asking companyName for the missing fields.
func FollowUpEmail(companyName string, missing []string, signature string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", companyName)
	b.WriteString("We noticed that some information is missing from your quote. Could you please provide the following details?\n\n")
	for _, field := range missing {
		fmt.Fprintf(&b, "- %s\n", FieldLabel(field))
	}
	b.WriteString("\nThank you for your prompt attention to this matter.\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString(signature)
	return b.String()
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}
