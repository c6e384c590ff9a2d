package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyCorpusBackend   = "corpus.backend"
	keyCorpusEndpoint  = "corpus.endpoint"
	keyCorpusCollect   = "corpus.collection"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyRetrievalTopK   = "retrieval.top_k"
	keyRetrievalMin    = "retrieval.min_score"
	keyRetrievalPrompt = "retrieval.template"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvDatabaseURL  = "DOCQA_DATABASE_URL"
)

// settingKeys lists every settable key in display order.
var settingKeys = []string{
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedBatchSize,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
	keyCorpusBackend, keyCorpusEndpoint, keyCorpusCollect,
	keyChunkSize, keyChunkOverlap,
	keyRetrievalTopK, keyRetrievalMin, keyRetrievalPrompt,
}

// setting is one key/value pair written by Save.
type setting struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup (for testing).
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings.
// Environment secrets take precedence over values from the config file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:  embedProvider,
			Model:     s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:    s.apiKey(embedProvider, keyEmbedAPIKey),
			BatchSize: s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.apiKey(llmProvider, keyLLMAPIKey),
		},
		Corpus: domain.CorpusSettings{
			Backend:      domain.CorpusBackend(s.getString(keyCorpusBackend, defaults.Corpus.Backend.String())),
			Endpoint:     s.configStore.GetString(keyCorpusEndpoint),
			CollectionID: s.getString(keyCorpusCollect, defaults.Corpus.CollectionID),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:     s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			MinScore: s.getFloat(keyRetrievalMin, defaults.Retrieval.MinScore),
			Template: s.getString(keyRetrievalPrompt, defaults.Retrieval.Template),
		},
	}

	if url := s.getenv(EnvDatabaseURL); url != "" && settings.Corpus.Backend == domain.CorpusBackendPgvector {
		settings.Corpus.Endpoint = url
	}

	return settings, nil
}

// ForLLMProvider returns the current settings with the LLM switched to
// provider. The configured model and key are kept only when they belong to
// that provider.
func (s *SettingsService) ForLLMProvider(provider domain.AIProvider) (*domain.AppSettings, error) {
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	if settings.LLM.Provider == provider {
		return settings, nil
	}

	settings.LLM = domain.LLMSettings{
		Provider: provider,
		Model:    domain.DefaultLLMModels()[provider],
		APIKey:   s.envKey(provider),
	}
	return settings, nil
}

// Save persists application settings.
// API keys that come from the environment are not written to the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []setting{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyCorpusBackend, settings.Corpus.Backend.String()},
		{keyCorpusCollect, settings.Corpus.CollectionID},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyRetrievalMin, settings.Retrieval.MinScore},
		{keyRetrievalPrompt, settings.Retrieval.Template},
	}

	if settings.Corpus.Endpoint != s.getenv(EnvDatabaseURL) {
		values = append(values, setting{keyCorpusEndpoint, settings.Corpus.Endpoint})
	}
	if key := settings.Embedding.APIKey; key != "" && key != s.envKey(settings.Embedding.Provider) {
		values = append(values, setting{keyEmbedAPIKey, key})
	}
	if key := settings.LLM.APIKey; key != "" && key != s.envKey(settings.LLM.Provider) {
		values = append(values, setting{keyLLMAPIKey, key})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Keys returns every settable key in display order.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

// Set parses value for key, checks the resulting settings and stores it.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	parsed, err := applySetting(settings, key, value)
	if err != nil {
		return err
	}
	if err := settings.Pipeline().Validate(); err != nil {
		return err
	}

	// Switching provider drops a model that belongs to the previous one.
	switch key {
	case keyEmbedProvider:
		if s.configStore.GetString(keyEmbedProvider) != value {
			if err := s.configStore.Set(keyEmbedModel, ""); err != nil {
				return fmt.Errorf("save %s: %w", keyEmbedModel, err)
			}
		}
	case keyLLMProvider:
		if s.configStore.GetString(keyLLMProvider) != value {
			if err := s.configStore.Set(keyLLMModel, ""); err != nil {
				return fmt.Errorf("save %s: %w", keyLLMModel, err)
			}
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// applySetting parses value into settings and returns the value to persist.
//
//nolint:gocyclo // One case per key.
func applySetting(settings *domain.AppSettings, key, value string) (any, error) {
	switch key {
	case keyEmbedProvider:
		p := domain.AIProvider(value)
		if !p.SupportsEmbeddings() {
			return nil, fmt.Errorf("%w: %q does not provide embeddings", domain.ErrUnsupportedProvider, value)
		}
		settings.Embedding.Provider = p
		return value, nil
	case keyLLMProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, value)
		}
		settings.LLM.Provider = p
		return value, nil
	case keyCorpusBackend:
		b := domain.CorpusBackend(value)
		if !b.IsValid() {
			return nil, fmt.Errorf("%w: unknown corpus backend %q", domain.ErrConfiguration, value)
		}
		settings.Corpus.Backend = b
		return value, nil
	case keyCorpusCollect:
		settings.Corpus.CollectionID = value
		return value, nil
	case keyRetrievalPrompt:
		if value == "" {
			return nil, fmt.Errorf("%w: template name is required", domain.ErrConfiguration)
		}
		settings.Retrieval.Template = value
		return value, nil
	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMModel, keyLLMBaseURL, keyLLMAPIKey, keyCorpusEndpoint:
		return value, nil
	case keyEmbedBatchSize:
		n, err := parsePositive(key, value)
		if err != nil {
			return nil, err
		}
		settings.Embedding.BatchSize = n
		return n, nil
	case keyChunkSize:
		n, err := parsePositive(key, value)
		if err != nil {
			return nil, err
		}
		settings.Chunking.Size = n
		return n, nil
	case keyChunkOverlap:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrConfiguration, key, value)
		}
		settings.Chunking.Overlap = n
		return n, nil
	case keyRetrievalTopK:
		n, err := parsePositive(key, value)
		if err != nil {
			return nil, err
		}
		settings.Retrieval.TopK = n
		return n, nil
	case keyRetrievalMin:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < -1 || f > 1 {
			return nil, fmt.Errorf("%w: %s must be a number in [-1, 1], got %q", domain.ErrConfiguration, key, value)
		}
		settings.Retrieval.MinScore = f
		return f, nil
	default:
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrConfiguration, key)
	}
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrConfiguration, key, value)
	}
	return n, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrUnsupportedProvider, provider)
	}
	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrUnsupportedProvider, provider)
	}
	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the current settings form a usable pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Pipeline().Validate(); err != nil {
		return err
	}
	if !settings.Corpus.Backend.IsValid() {
		return fmt.Errorf("%w: unknown corpus backend %q", domain.ErrConfiguration, settings.Corpus.Backend)
	}
	if settings.Corpus.Backend == domain.CorpusBackendPgvector && settings.Corpus.Endpoint == "" {
		return fmt.Errorf("%w: pgvector backend requires corpus.endpoint or %s", domain.ErrConfiguration, EnvDatabaseURL)
	}
	if !settings.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: %q does not provide embeddings", domain.ErrUnsupportedProvider, settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not configured", domain.ErrConfiguration, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is not configured", domain.ErrConfiguration, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt keeps an explicit zero, which is meaningful for chunking.overlap.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}

// apiKey prefers the provider's environment variable over the stored key.
func (s *SettingsService) apiKey(provider domain.AIProvider, storeKey string) string {
	if key := s.envKey(provider); key != "" {
		return key
	}
	return s.configStore.GetString(storeKey)
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderGemini:
		if key := s.getenv(EnvGeminiKey); key != "" {
			return key
		}
		return s.getenv(EnvGoogleKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	default:
		return ""
	}
}
