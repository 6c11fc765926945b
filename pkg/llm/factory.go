package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClientFromConfig builds the provider client named by cfg.Provider and
// wraps it with pacing and a circuit breaker. Called once at startup; the
// result is shared by every request.
func NewClientFromConfig(cfg *Config, guard GuardConfig, logger *zap.Logger) (LLMClient, error) {
	var (
		client LLMClient
		err    error
	)

	switch cfg.Provider {
	case "", ProviderOpenAI:
		client, err = NewClient(cfg, logger)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return NewGuardedClient(client, guard, logger), nil
}
