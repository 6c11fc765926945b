package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
)

// maxRequestBodyBytes caps JSON request bodies. Supplier emails are text
// and fit well within this.
const maxRequestBodyBytes = 1 << 20

// ApiResponse is the envelope for JSON API responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ScopeMiddleware attaches a database scope to the request context.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// decodeJSON reads a JSON request body into dst. With strict, fields not
// declared on dst are rejected so update requests stay allow-listed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeBadRequest writes a 400 invalid_request response.
func writeBadRequest(w http.ResponseWriter, logger *zap.Logger, message string) {
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeServiceError maps service errors onto HTTP responses. Unexpected
// errors are logged and reported as 500 with errorCode.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, errorCode, message string) {
	status := http.StatusInternalServerError
	code := errorCode
	msg := message

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", message+": not found"
	case errors.Is(err, apperrors.ErrConflict):
		status, code, msg = http.StatusConflict, "conflict", message+": already exists"
	case errors.Is(err, apperrors.ErrInvalidUpdate),
		errors.Is(err, apperrors.ErrInvalidQuote),
		errors.Is(err, apperrors.ErrRFQItemRequired),
		errors.Is(err, apperrors.ErrSupplierCompanyRequired):
		status, code, msg = http.StatusBadRequest, "invalid_request", err.Error()
	default:
		logger.Error(message, zap.Error(err))
	}

	if err := ErrorResponse(w, status, code, msg); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeSuccess writes data in a successful ApiResponse envelope.
func writeSuccess(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
