// Package extraction turns raw supplier email text into a validated
// StructuredQuote with one LLM call.
package extraction

import (
	"fmt"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/llm"
)

// Reason classifies why an extraction failed.
type Reason string

const (
	ReasonModelError      Reason = "model_error"
	ReasonIncomplete      Reason = "incomplete"
	ReasonMalformed       Reason = "malformed_response"
	ReasonSchemaViolation Reason = "schema_violation"
	ReasonEmptyInput      Reason = "empty_input"
)

// Failure is the only error type Extract returns. It matches
// apperrors.ErrExtractionFailed with errors.Is.
type Failure struct {
	Reason  Reason
	Field   string // Offending key for schema violations
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("extraction failed (%s)", f.Reason)
	if f.Field != "" {
		msg += fmt.Sprintf(" %s", f.Field)
	}
	if f.Message != "" {
		msg += ": " + f.Message
	}
	if f.Cause != nil {
		msg += fmt.Sprintf(": %v", f.Cause)
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	if f.Cause == nil {
		return []error{apperrors.ErrExtractionFailed}
	}
	return []error{apperrors.ErrExtractionFailed, f.Cause}
}

// IsRetryable reports whether repeating the same request could succeed.
// Only transient model errors qualify; a bad payload would come back bad again.
func (f *Failure) IsRetryable() bool {
	return f.Reason == ReasonModelError && llm.IsRetryable(f.Cause)
}

func modelFailure(err error) *Failure {
	if llm.GetErrorType(err) == llm.ErrorTypeIncomplete {
		return &Failure{Reason: ReasonIncomplete, Cause: err}
	}
	return &Failure{Reason: ReasonModelError, Cause: err}
}

func schemaFailure(field string, cause error) *Failure {
	return &Failure{Reason: ReasonSchemaViolation, Field: field, Cause: cause}
}
