package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/finflow/internal/forecast"
	"github.com/Veraticus/finflow/internal/llm"
)

// createNarrativeClient returns the configured narrative generator and a
// cleanup func. Without an API key it returns a nil generator and the
// forecast engine falls back to its statistical narrative.
func createNarrativeClient() (forecast.NarrativeGenerator, func(), error) {
	noop := func() {}

	if !appConfig.HasLLM() {
		slog.Warn("No LLM API key configured, using statistical narrative",
			"provider", appConfig.LLM.Provider)
		return nil, noop, nil
	}

	client, err := llm.NewManagedClient(appConfig.LLM, slog.Default())
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create LLM client: %w", err)
	}

	slog.Debug("Created narrative client",
		"provider", appConfig.LLM.Provider,
		"model", appConfig.LLM.Model)

	return client, func() { _ = client.Close() }, nil
}
