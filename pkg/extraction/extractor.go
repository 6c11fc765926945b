package extraction

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/llm"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/prompts"
)

// Extractor turns one email into one validated StructuredQuote.
type Extractor interface {
	// Extract makes exactly one completion request. Every error is a *Failure.
	Extract(ctx context.Context, emailText string) (*models.StructuredQuote, error)
}

type llmExtractor struct {
	client      llm.LLMClient
	temperature float64
	now         func() time.Time
	logger      *zap.Logger
}

// NewExtractor creates an Extractor backed by client. The client is shared
// and safe for concurrent use.
func NewExtractor(client llm.LLMClient, temperature float64, logger *zap.Logger) Extractor {
	return &llmExtractor{
		client:      client,
		temperature: temperature,
		now:         time.Now,
		logger:      logger.Named("extraction"),
	}
}

var _ Extractor = (*llmExtractor)(nil)

func (e *llmExtractor) Extract(ctx context.Context, emailText string) (*models.StructuredQuote, error) {
	start := time.Now()
	quote, err := e.extract(ctx, emailText)
	ExtractionDuration.Observe(time.Since(start).Seconds())
	recordOutcome(err)

	if err != nil {
		e.logger.Warn("Email extraction failed",
			zap.Int("email_len", len(emailText)),
			zap.String("model", e.client.GetModel()),
			zap.Error(err))
		return nil, err
	}
	return quote, nil
}

func (e *llmExtractor) extract(ctx context.Context, emailText string) (*models.StructuredQuote, error) {
	if strings.TrimSpace(emailText) == "" {
		return nil, &Failure{Reason: ReasonEmptyInput, Message: "email text is empty"}
	}

	today := e.now()
	result, err := e.client.GenerateResponse(ctx, &llm.CompletionRequest{
		SystemMessage: prompts.BuildQuoteExtractionSystemMessage(),
		Prompt:        prompts.BuildQuoteExtractionPrompt(emailText, today),
		Temperature:   e.temperature,
		Schema:        QuoteSchema(),
	})
	if err != nil {
		return nil, modelFailure(err)
	}

	return Decode(result.Content, today)
}
