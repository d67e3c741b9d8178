package llm

import (
	"fmt"
	"log/slog"
	"strings"
)

// NewClient creates a raw LLM client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "gemini", "google":
		return newGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewManagedClient creates a provider client wrapped with rate limiting,
// caching and a circuit breaker.
func NewManagedClient(cfg Config, logger *slog.Logger) (*ManagedClient, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return newManagedClient(client, cfg, logger), nil
}
