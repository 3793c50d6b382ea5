package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	appErrors "archflow-backend/pkg/errors"
)

// BreakerConfig holds circuit breaker tuning for a provider.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ReadyToTrip trips once FailureThreshold of the last window failed,
	// but never before MinRequests calls were observed.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the standard tuning for an upstream model
// provider.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerProvider decorates a ports.Provider with a circuit breaker so a
// failing upstream stops receiving calls for a while instead of slowing
// every chat request down.
type BreakerProvider struct {
	inner  ports.Provider
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerProvider wraps inner with a circuit breaker.
func NewBreakerProvider(inner ports.Provider, cfg BreakerConfig, logger *zap.Logger) *BreakerProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerProvider{
		inner:  inner,
		cb:     cb,
		logger: logger,
	}
}

// Complete forwards to the inner provider through the breaker. An open
// breaker fails fast with an unavailability error and no upstream call.
func (p *BreakerProvider) Complete(ctx context.Context, messages []ports.Message, opts ports.CompletionOptions) (string, error) {
	result, err := p.cb.Execute(func() (any, error) {
		return p.inner.Complete(ctx, messages, opts)
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			return "", appErrors.NewUnavailableError("model provider").WithCause(err)
		}
		return "", err
	}
	return result.(string), nil
}

// IsAvailable is false while the breaker is open or the inner provider is
// unconfigured.
func (p *BreakerProvider) IsAvailable() bool {
	return p.inner.IsAvailable() && p.cb.State() != gobreaker.StateOpen
}
