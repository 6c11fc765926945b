package extraction

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/retry"
)

// RetryingExtractor repeats an extraction after transient model errors
// (rate limits, timeouts, provider 5xx). Payload failures are returned at once.
type RetryingExtractor struct {
	next   Extractor
	cfg    *retry.Config
	logger *zap.Logger
}

// NewRetryingExtractor wraps next. With cfg.MaxRetries == 0 it is a pass-through.
func NewRetryingExtractor(next Extractor, cfg *retry.Config, logger *zap.Logger) *RetryingExtractor {
	return &RetryingExtractor{
		next:   next,
		cfg:    cfg,
		logger: logger.Named("extraction-retry"),
	}
}

var _ Extractor = (*RetryingExtractor)(nil)

// Extract implements Extractor.
func (r *RetryingExtractor) Extract(ctx context.Context, emailText string) (*models.StructuredQuote, error) {
	var quote *models.StructuredQuote
	attempt := 0

	err := retry.DoIfRetryable(ctx, r.cfg, func() error {
		if attempt > 0 {
			ExtractionRetries.Inc()
			r.logger.Info("Retrying extraction after transient model error", zap.Int("attempt", attempt+1))
		}
		attempt++

		var err error
		quote, err = r.next.Extract(ctx, emailText)
		return err
	})
	if err != nil {
		if _, ok := err.(*Failure); !ok {
			// Context cancelled while waiting between attempts.
			return nil, modelFailure(err)
		}
		return nil, err
	}
	return quote, nil
}
