package extraction

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ekaya-inc/rfqportal/pkg/jsonutil"
	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/models"
)

// quotePayload reads the validated reply. The quantity is decoded separately
// so 10000.0 is accepted and values beyond int64 are refused.
type quotePayload struct {
	models.StructuredQuote
	MinimumOrderQuantity json.RawMessage `json:"minimum_order_quantity"`
}

// Decode validates a model response and builds the StructuredQuote.
// Keys the model omits are treated as null; unknown keys are rejected.
// A null or blank date_submitted becomes today's date in UTC.
func Decode(content string, today time.Time) (*models.StructuredQuote, error) {
	body, err := llm.ExtractJSONObject(content)
	if err != nil {
		return nil, &Failure{Reason: ReasonMalformed, Cause: err}
	}

	if err := validatePayload(body); err != nil {
		return nil, err
	}

	var payload quotePayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if i := strings.LastIndexByte(field, '.'); i >= 0 {
				field = field[i+1:]
			}
			return nil, schemaFailure(field, err)
		}
		return nil, schemaFailure("", err)
	}

	q := &payload.StructuredQuote
	q.SchemaVersion = models.QuoteSchemaVersion
	if q.MinimumOrderQuantity, err = jsonutil.NullableInteger(payload.MinimumOrderQuantity); err != nil {
		return nil, schemaFailure("minimum_order_quantity", err)
	}

	for _, s := range []**string{
		&q.SupplierCompanyName, &q.MainContactName, &q.MainContactEmail,
		&q.MainContactPhone, &q.HQAddress, &q.PaymentTerms,
		&q.DateSubmitted, &q.CountryOfOrigin,
	} {
		*s = blankToNil(*s)
	}
	q.Certifications = nonBlank(q.Certifications)

	if q.DateSubmitted == nil {
		d := today.UTC().Format(models.DateLayout)
		q.DateSubmitted = &d
	} else if _, err := q.SubmittedAt(); err != nil {
		return nil, schemaFailure("date_submitted", err)
	}

	return q, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonBlank(items []string) []string {
	list := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
