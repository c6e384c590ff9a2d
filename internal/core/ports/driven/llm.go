// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService generates text from a prompt.
// The answer pipeline uses a single Generate call per question.
//
// Implementations may include:
//   - OpenAI (gpt-5-nano, gpt-4o-mini)
//   - Google Gemini (gemini-2.5-flash-lite)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before answering questions.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate. Zero means provider default.
	MaxTokens int

	// Temperature controls randomness. Nil leaves the provider default in place,
	// a pointer to 0 requests deterministic output and is always sent.
	Temperature *float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// Temperature returns a pointer to t for use in GenerateOptions.
func Temperature(t float64) *float64 {
	return &t
}
