package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/infrastructure/config"
)

// NewProvider builds the configured model provider, wrapped in a circuit
// breaker. The returned cleanup function releases provider resources.
//
// Dispatch over provider tags is deliberately closed: an unknown tag is a
// configuration error, not a fallback.
func NewProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Provider, func(), error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		gemini, err := NewGeminiProvider(ctx, cfg.LLM, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := gemini.Close(); err != nil {
				logger.Warn("Failed to close gemini client", zap.Error(err))
			}
		}
		return NewBreakerProvider(gemini, DefaultBreakerConfig(config.ProviderGemini), logger), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q (supported: %s)",
			cfg.LLM.Provider, config.ProviderGemini)
	}
}
