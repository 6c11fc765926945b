package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Provider names accepted by NewClientFromConfig.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider  string        // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	Endpoint  string        // Base URL, e.g., "https://api.openai.com/v1"
	Model     string        // Model name, e.g., "gpt-4o"
	APIKey    string        // Optional for local endpoints
	MaxTokens int           // Completion token cap; 0 leaves the provider default
	Timeout   time.Duration // Per-request HTTP timeout; 0 disables

	// StructuredOutput sends the request schema as a json_schema response
	// format. Endpoints without support fall back to json_object mode.
	StructuredOutput bool
}

// Client provides access to OpenAI-compatible LLM endpoints.
type Client struct {
	client           *openai.Client
	endpoint         string
	model            string
	maxTokens        int
	structuredOutput bool
	logger           *zap.Logger
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:           openai.NewClientWithConfig(clientConfig),
		endpoint:         cfg.Endpoint,
		model:            cfg.Model,
		maxTokens:        cfg.MaxTokens,
		structuredOutput: cfg.StructuredOutput,
		logger:           logger.Named("llm"),
	}, nil
}

// GenerateResponse generates a chat completion response with usage stats.
func (c *Client) GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   c.maxTokens,
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = c.responseFormat(req.Schema)
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Float64("temperature", req.Temperature),
		zap.Bool("structured", req.Schema != nil && c.structuredOutput))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withContext(ClassifyError(err), c.model, c.endpoint)
	}

	if len(resp.Choices) == 0 {
		return nil, withContext(NewError(ErrorTypeUnknown, "no choices in response", false, nil), c.model, c.endpoint)
	}

	choice := resp.Choices[0]
	switch choice.FinishReason {
	case openai.FinishReasonLength, openai.FinishReasonContentFilter:
		c.logger.Warn("LLM completion incomplete",
			zap.String("finish_reason", string(choice.FinishReason)),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens))
		return nil, withContext(NewIncompleteError(string(choice.FinishReason)), c.model, c.endpoint)
	}
	if choice.Message.Refusal != "" {
		return nil, withContext(NewIncompleteError("refusal"), c.model, c.endpoint)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (c *Client) responseFormat(schema *ResponseSchema) *openai.ChatCompletionResponseFormat {
	if !c.structuredOutput {
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      schema.Definition,
			Strict:      schema.Strict,
		},
	}
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}
