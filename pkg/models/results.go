package models

import "github.com/google/uuid"

// ProcessStatus is the outcome of processing one supplier email.
type ProcessStatus string

const (
	ProcessStatusSuccess ProcessStatus = "success"
	ProcessStatusFail    ProcessStatus = "fail"
)

// FailureReason tells callers why processing failed, separating model
// problems from missing entities.
type FailureReason string

const (
	FailureReasonExtraction   FailureReason = "extraction_failed"
	FailureReasonNotFound     FailureReason = "not_found"
	FailureReasonInvalidQuote FailureReason = "invalid_quote"
	FailureReasonInternal     FailureReason = "internal"
)

// ProcessResult is returned to callers of the email pipeline. It never carries
// a Go error; failures are reported through Status, Reason and Message.
type ProcessResult struct {
	Status          ProcessStatus `json:"status"`
	QuoteID         *uuid.UUID    `json:"quote_id,omitempty"`
	EmailID         *uuid.UUID    `json:"email_id,omitempty"`
	SupplierCreated bool          `json:"supplier_created,omitempty"`
	Reason          FailureReason `json:"reason,omitempty"`
	Message         string        `json:"message,omitempty"`
}

// ReconciliationResult describes the rows written for one structured quote.
type ReconciliationResult struct {
	QuoteID             uuid.UUID `json:"quote_id"`
	EmailID             uuid.UUID `json:"email_id"`
	SupplierCompanyName string    `json:"supplier_company_name"`
	SupplierCreated     bool      `json:"supplier_created"`
}

// AuditStatus is the outcome of a missing-field audit.
type AuditStatus string

const (
	AuditStatusComplete AuditStatus = "success"
	AuditStatusMissing  AuditStatus = "missing"
	AuditStatusFail     AuditStatus = "fail"
)

// AuditResult reports which canonical fields of a quote are missing and, if any
// are, the follow-up email to send the supplier.
type AuditResult struct {
	Status        AuditStatus `json:"status"`
	Message       string      `json:"message,omitempty"`
	MissingFields []string    `json:"missing_fields,omitempty"`
	EmailBody     string      `json:"email_body,omitempty"`
}
