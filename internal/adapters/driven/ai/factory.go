// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/batched"
	geminiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to provider errors shown to the user.
const fixHint = "Run 'docqa settings show' to check the configuration"

// Services holds the AI services opened for one invocation. Several LLMs
// may be open when answers are requested from more than one provider.
type Services struct {
	Embedding driven.EmbeddingService
	LLMs      []driven.LLMService
}

// AddLLM records llm so that Close releases it.
func (s *Services) AddLLM(llm driven.LLMService) {
	s.LLMs = append(s.LLMs, llm)
}

// Close releases all resources held by Services and resets it.
func (s *Services) Close() {
	for _, llm := range s.LLMs {
		_ = llm.Close()
	}
	s.LLMs = nil
	if s.Embedding != nil {
		_ = s.Embedding.Close()
		s.Embedding = nil
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). %s",
			domain.ErrEmbeddingUnavailable, settings.Provider, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, settings domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). %s",
			domain.ErrLLMUnavailable, settings.Provider, err, fixHint)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

// ValidateLLMConfig creates a service from settings and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// CreateEmbeddingService creates the embedding service selected by settings,
// wrapped so batches stay within settings.BatchSize.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if err := checkProvider(settings.Provider, settings.APIKey); err != nil {
		return nil, err
	}

	var (
		inner driven.EmbeddingService
		err   error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		inner = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		inner, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		inner, err = geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use ollama, openai or gemini",
			domain.ErrUnsupportedProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return batched.New(inner, batched.Config{BatchSize: settings.BatchSize}), nil
}

// CreateLLMService creates the LLM service selected by settings.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if err := checkProvider(settings.Provider, settings.APIKey); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
}

// checkProvider rejects unknown providers and cloud providers without a key.
func checkProvider(provider domain.AIProvider, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: %s requires an API key, set %s",
			domain.ErrConfiguration, provider, APIKeyEnv(provider))
	}
	return nil
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func APIKeyEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case domain.AIProviderGemini:
		return "GEMINI_API_KEY"
	case domain.AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
