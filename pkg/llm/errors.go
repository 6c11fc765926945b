package llm

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies an LLM failure.
type ErrorType string

const (
	ErrorTypeNone        ErrorType = ""
	ErrorTypeEndpoint    ErrorType = "endpoint"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeIncomplete  ErrorType = "incomplete"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the operation can be retried
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
	Endpoint   string    // Endpoint URL if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if host := endpointHost(e.Endpoint); host != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", host))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// endpointHost keeps only the host so paths and query strings never reach logs.
func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
// This allows the retry package to check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewIncompleteError reports a completion that stopped before producing a
// full answer (token limit, content filter, refusal).
func NewIncompleteError(finishReason string) *Error {
	return NewError(ErrorTypeIncomplete,
		fmt.Sprintf("completion incomplete (finish reason %q)", finishReason), false, nil)
}

// withContext attaches client details to an error for logging.
func withContext(err *Error, model, endpoint string) *Error {
	if err.Model == "" {
		err.Model = model
	}
	if err.Endpoint == "" {
		err.Endpoint = endpoint
	}
	return err
}

// ClassifyError categorizes an error and returns a structured Error.
// This consolidates error classification logic for consistent handling.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	// Check if already an *Error
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	// Typed OpenAI API errors carry the status code directly.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		if classified := classifyStatus(apiErr.HTTPStatusCode, err); classified != nil {
			return classified
		}
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	// Extract HTTP status code from error string
	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504, 529} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	classify := func(errType ErrorType, message string, retryable bool) *Error {
		llmErr := NewError(errType, message, retryable, err)
		llmErr.StatusCode = statusCode
		return llmErr
	}

	switch {
	// Authentication errors (not retryable)
	case strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication_error"):
		return classify(ErrorTypeAuth, "authentication failed", false)

	// Model not found (not retryable without config change)
	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")):
		return classify(ErrorTypeModel, "model not found", false)

	// Endpoint not found (not retryable without config change)
	case strings.Contains(errStr, "404"):
		return classify(ErrorTypeEndpoint, "endpoint not found", false)

	// Connection errors (may be retryable)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return classify(ErrorTypeEndpoint, "connection failed", true)

	// Timeout and deadline exceeded (retryable)
	case strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled"):
		return classify(ErrorTypeTimeout, "request timeout", true)

	// Rate limiting (retryable after backoff)
	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit"):
		return classify(ErrorTypeRateLimit, "rate limited", true)

	// Provider overload and 5xx server errors (retryable)
	case strings.Contains(lower, "overloaded") || strings.Contains(errStr, "529") ||
		strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504"):
		return classify(ErrorTypeEndpoint, "server error", true)
	}

	return classify(ErrorTypeUnknown, "llm error", false)
}

// classifyStatus maps a known HTTP status to an Error, or nil when the status
// alone is not enough to decide.
func classifyStatus(status int, cause error) *Error {
	var llmErr *Error
	switch {
	case status == 401 || status == 403:
		llmErr = NewError(ErrorTypeAuth, "authentication failed", false, cause)
	case status == 404:
		llmErr = NewError(ErrorTypeEndpoint, "endpoint not found", false, cause)
	case status == 429:
		llmErr = NewError(ErrorTypeRateLimit, "rate limited", true, cause)
	case status >= 500:
		llmErr = NewError(ErrorTypeEndpoint, "server error", true, cause)
	default:
		return nil
	}
	llmErr.StatusCode = status
	return llmErr
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
