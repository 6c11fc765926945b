// Package llm provides chat-completion clients for OpenAI-compatible and
// Anthropic endpoints behind a single interface.
package llm

import (
	"context"
	"encoding/json"
)

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends exactly one completion request.
	// Errors are always *Error; a truncated or refused completion is an
	// ErrorTypeIncomplete error rather than a partial result.
	GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// CompletionRequest is a single system + user exchange.
type CompletionRequest struct {
	SystemMessage string
	Prompt        string
	Temperature   float64
	// Schema, when set, describes the JSON object the model must return.
	Schema *ResponseSchema
}

// ResponseSchema is a named JSON Schema for structured output.
type ResponseSchema struct {
	Name        string
	Description string
	Definition  json.RawMessage
	Strict      bool
}

// GenerateResponseResult holds the completion text and token usage.
type GenerateResponseResult struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ensure clients implement LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*GuardedClient)(nil)
)
