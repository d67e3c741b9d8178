package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/sony/gobreaker"
)

// ManagedClient decorates a Client with a response cache, a per-caller
// rate limiter and a circuit breaker. It makes exactly one provider call
// per uncached prompt.
type ManagedClient struct {
	client  Client
	limiter *rateLimiter
	cache   *responseCache
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func newManagedClient(client Client, cfg Config, logger *slog.Logger) *ManagedClient {
	logger = common.LoggerOrDefault(logger)
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = "llm"
	}

	return &ManagedClient{
		client:  client,
		limiter: newRateLimiter(cfg.RateLimit),
		cache:   newResponseCache(cfg.CacheTTL),
		breaker: newCircuitBreaker(name, logger),
		logger:  logger,
	}
}

// Generate returns a cached completion for the prompt or asks the provider.
func (m *ManagedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if text, ok := m.cache.get(prompt); ok {
		m.logger.Debug("LLM cache hit")
		return text, nil
	}

	if err := m.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrNarrativeUnavailable, err)
	}

	result, err := m.breaker.Execute(func() (any, error) {
		return m.client.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", common.ErrNarrativeUnavailable, err)
		}
		return "", err
	}

	text, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected provider result %T", common.ErrInvalidOutput, result)
	}

	m.cache.set(prompt, text)
	return text, nil
}

// Close stops background goroutines.
func (m *ManagedClient) Close() error {
	m.limiter.Close()
	m.cache.Close()
	return nil
}
