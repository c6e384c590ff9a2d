package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if this provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	for _, provider := range AllEmbeddingProviders() {
		if provider == p {
			return true
		}
	}
	return false
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// CorpusBackend identifies the corpus store implementation.
type CorpusBackend string

// Available corpus backends.
const (
	// CorpusBackendSQLite stores records in a local SQLite file.
	CorpusBackendSQLite CorpusBackend = "sqlite"

	// CorpusBackendPgvector stores records in PostgreSQL with the pgvector extension.
	CorpusBackendPgvector CorpusBackend = "pgvector"

	// CorpusBackendMemory keeps records in process memory only.
	CorpusBackendMemory CorpusBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b CorpusBackend) IsValid() bool {
	switch b {
	case CorpusBackendSQLite, CorpusBackendPgvector, CorpusBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CorpusBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b CorpusBackend) Description() string {
	switch b {
	case CorpusBackendSQLite:
		return "SQLite (local file)"
	case CorpusBackendPgvector:
		return "PostgreSQL + pgvector"
	case CorpusBackendMemory:
		return "In-memory (not persisted)"
	default:
		return unknownDescription
	}
}

// Built-in prompt template names.
const (
	// TemplateGuarded lists the closed-context rules followed by worked
	// examples of out-of-context questions.
	TemplateGuarded = "guarded"

	// TemplateStrict lists numbered closed-context rules without examples.
	TemplateStrict = "strict"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible proxies).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible proxies).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// CorpusSettings holds corpus store configuration.
type CorpusSettings struct {
	// Backend selects the store implementation.
	Backend CorpusBackend

	// Endpoint is the backend connection string. A PostgreSQL URL for
	// pgvector, a data directory for sqlite, ignored for memory.
	Endpoint string

	// CollectionID is the named collection questions are answered from.
	CollectionID string
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the maximum number of characters shared by consecutive chunks.
	Overlap int
}

// RetrievalSettings controls retrieval and prompt assembly.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MinScore drops hits scoring below this value. Zero disables the filter.
	MinScore float64

	// Template names the prompt template used to assemble the prompt.
	Template string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Corpus holds corpus store settings.
	Corpus CorpusSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Retrieval holds retrieval and prompt settings.
	Retrieval RetrievalSettings
}

// Pipeline returns the explicit pipeline parameters derived from these settings.
func (s AppSettings) Pipeline() PipelineConfig {
	return PipelineConfig{
		EmbeddingModel:     s.Embedding.Model,
		LanguageModel:      s.LLM.Model,
		CollectionID:       s.Corpus.CollectionID,
		ConnectionEndpoint: s.Corpus.Endpoint,
		ChunkSize:          s.Chunking.Size,
		ChunkOverlap:       s.Chunking.Overlap,
		TopK:               s.Retrieval.TopK,
	}
}

// PipelineConfig is the immutable parameter set shared by ingestion and answering.
// It is passed to the services explicitly at construction time.
type PipelineConfig struct {
	EmbeddingModel     string
	LanguageModel      string
	CollectionID       string
	ConnectionEndpoint string
	ChunkSize          int
	ChunkOverlap       int
	TopK               int
}

// Validate checks the parameters that every pipeline depends on.
func (c PipelineConfig) Validate() error {
	if c.CollectionID == "" {
		return fmt.Errorf("%w: collection id is required", ErrConfiguration)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d",
			ErrConfiguration, c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top k must be positive, got %d", ErrConfiguration, c.TopK)
	}
	return nil
}

// Default pipeline parameters.
const (
	DefaultCollectionID = "pdf_documents"
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
	DefaultTopK         = 10
	DefaultBatchSize    = 64
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from the environment or the config file.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     DefaultEmbeddingModels()[AIProviderOpenAI],
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		Corpus: CorpusSettings{
			Backend:      CorpusBackendSQLite,
			CollectionID: DefaultCollectionID,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:     DefaultTopK,
			Template: TemplateGuarded,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// AllCorpusBackends returns all available corpus backends.
func AllCorpusBackends() []CorpusBackend {
	return []CorpusBackend{
		CorpusBackendSQLite,
		CorpusBackendPgvector,
		CorpusBackendMemory,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-5-nano",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.5-flash-lite",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
	}
}
