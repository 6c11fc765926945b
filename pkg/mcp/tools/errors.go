package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/rfqportal/pkg/extraction"
	"github.com/ekaya-inc/rfqportal/pkg/models"
)

// ErrorResponse represents a structured error in tool results.
// Returned as a tool result flagged isError so the calling agent sees the
// reason instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (bad parameters, unknown RFQ,
// unusable email). System failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// extractionErrorResult reports why an email could not be turned into a quote.
// Returns false when err is not an extraction failure.
func extractionErrorResult(err error) (*mcp.CallToolResult, bool) {
	var failure *extraction.Failure
	if !errors.As(err, &failure) {
		return nil, false
	}

	details := map[string]any{"reason": string(failure.Reason)}
	if failure.Field != "" {
		details["field"] = failure.Field
	}
	return NewErrorResultWithDetails("extraction_failed", failure.Error(), details), true
}

// processFailureResult converts a failed ProcessResult into an error result.
func processFailureResult(result *models.ProcessResult) *mcp.CallToolResult {
	return NewErrorResult(string(result.Reason), result.Message)
}
