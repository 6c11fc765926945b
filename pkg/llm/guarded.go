package llm

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GuardConfig paces and protects calls to a provider.
type GuardConfig struct {
	RequestsPerMinute int // Zero disables pacing
	Burst             int
	CircuitBreaker    CircuitBreakerConfig
}

// GuardedClient wraps an LLMClient with a process-wide token-bucket limiter
// and a circuit breaker. It never retries.
type GuardedClient struct {
	next    LLMClient
	limiter *rate.Limiter
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewGuardedClient wraps next according to cfg.
func NewGuardedClient(next LLMClient, cfg GuardConfig, logger *zap.Logger) *GuardedClient {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}

	return &GuardedClient{
		next:    next,
		limiter: limiter,
		breaker: NewCircuitBreaker(cfg.CircuitBreaker),
		logger:  logger.Named("llm-guard"),
	}
}

// GenerateResponse waits for a rate-limit token, checks the breaker, then
// delegates exactly once.
func (g *GuardedClient) GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, withContext(NewError(ErrorTypeTimeout, "rate limiter wait aborted", true, err), g.next.GetModel(), g.next.GetEndpoint())
	}

	if err := g.breaker.Allow(); err != nil {
		g.logger.Warn("LLM request rejected by circuit breaker",
			zap.String("state", g.breaker.State().String()))
		return nil, withContext(ClassifyError(err), g.next.GetModel(), g.next.GetEndpoint())
	}

	result, err := g.next.GenerateResponse(ctx, req)
	g.breaker.Record(err)
	return result, err
}

// GetModel returns the wrapped client's model.
func (g *GuardedClient) GetModel() string {
	return g.next.GetModel()
}

// GetEndpoint returns the wrapped client's endpoint.
func (g *GuardedClient) GetEndpoint() string {
	return g.next.GetEndpoint()
}
