package domain

import "errors"

// Domain errors represent pipeline failures.
// Adapters wrap their own errors with one of these so callers can
// branch with errors.Is regardless of the backend in use.
var (
	// ErrConfiguration indicates invalid pipeline parameters (chunk size,
	// overlap, prompt template placeholders).
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates a requested document or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat indicates the document is not a readable PDF.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEmptyDocument indicates chunking produced zero chunks.
	// The corpus is left untouched when this is returned.
	ErrEmptyDocument = errors.New("empty document")

	// ErrStorage indicates the corpus store rejected a write.
	ErrStorage = errors.New("storage error")

	// ErrInvalidArgument indicates a malformed request, such as a blank
	// question, a non-positive k, or a vector of the wrong dimension.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAnswer wraps any failure inside the answer pipeline.
	// The underlying cause remains reachable through errors.Is.
	ErrAnswer = errors.New("answer failed")

	// ErrEmbedding indicates the embedding provider failed or returned
	// vectors that do not match the request.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation failed")

	// ErrUnsupportedProvider indicates an unknown AI provider or corpus backend.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
