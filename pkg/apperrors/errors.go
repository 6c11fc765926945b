package apperrors

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrExtractionFailed        = errors.New("extraction failed")
	ErrInvalidQuote            = errors.New("invalid structured quote")
	ErrInvalidUpdate           = errors.New("invalid update")
	ErrDuplicateSupplierRace   = errors.New("concurrent supplier creation conflict")
	ErrRFQItemRequired         = errors.New("rfq item is required")
	ErrSupplierCompanyRequired = errors.New("supplier company name is required")
)
