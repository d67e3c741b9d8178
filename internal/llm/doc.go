// Package llm provides language model clients used to write forecast narratives.
// It supports OpenAI, Anthropic and Gemini over plain HTTP, with rate limiting,
// response caching and a circuit breaker layered on top by ManagedClient.
package llm
