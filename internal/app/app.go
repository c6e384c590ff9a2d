// Package app wires the driven adapters into the core services for the CLI.
// Adapters are built on first use so that commands which only read settings
// never open the corpus store or contact a provider.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// Ensure App implements the CLI runtime.
var _ cli.Runtime = (*App)(nil)

// App owns the adapters of one CLI invocation.
type App struct {
	dataDir  string
	settings *services.SettingsService
	prompts  driven.PromptStore

	mu        sync.Mutex
	store     driven.CorpusStore
	providers ai.Services
}

// New opens the configuration in opts.ConfigDir (default ~/.docqa).
func New(opts cli.Options) (cli.Runtime, error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("%w: resolving config directory: %w", domain.ErrConfiguration, err)
		}
		dir = d
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", domain.ErrConfiguration, filepath.Join(dir, "config.toml"), err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	return &App{
		dataDir:  filepath.Join(dir, "data"),
		settings: services.NewSettingsService(configStore, ai.NewConfigValidator()),
		prompts:  prompts,
	}, nil
}

// Settings returns the settings service.
func (a *App) Settings() driving.SettingsService {
	return a.settings
}

// Ingestion builds the ingestion pipeline over the configured collection.
func (a *App) Ingestion(ctx context.Context) (driving.IngestionService, error) {
	settings, err := a.pipelineSettings(a.settings.Get)
	if err != nil {
		return nil, err
	}

	splitter, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return nil, err
	}
	store, err := a.corpusStore(ctx, settings.Corpus)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embeddingService(ctx, settings.Embedding)
	if err != nil {
		return nil, err
	}

	return services.NewIngestionService(pdf.New(), splitter, embedder, store, settings.Pipeline()), nil
}

// Retrieval builds a retriever over the configured collection.
func (a *App) Retrieval(ctx context.Context) (driving.RetrievalService, error) {
	settings, err := a.pipelineSettings(a.settings.Get)
	if err != nil {
		return nil, err
	}
	return a.retriever(ctx, settings)
}

// Answer builds the answer pipeline. A non-empty provider replaces the
// configured LLM provider for this invocation.
func (a *App) Answer(ctx context.Context, provider domain.AIProvider) (driving.AnswerService, error) {
	get := a.settings.Get
	if provider != "" {
		get = func() (*domain.AppSettings, error) { return a.settings.ForLLMProvider(provider) }
	}
	settings, err := a.pipelineSettings(get)
	if err != nil {
		return nil, err
	}

	assembler, err := services.LoadPromptAssembler(a.prompts, settings.Retrieval.Template)
	if err != nil {
		return nil, err
	}
	retriever, err := a.retriever(ctx, settings)
	if err != nil {
		return nil, err
	}

	llm, err := ai.CreateAndValidateLLMService(ctx, settings.LLM)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.providers.AddLLM(llm)
	a.mu.Unlock()

	logger.Debug("Answering with %s (%s), template %q, k=%d",
		settings.LLM.Provider, llm.ModelName(), assembler.Name(), settings.Retrieval.TopK)
	return services.NewAnswerService(retriever, assembler, llm, settings.Pipeline()), nil
}

// Corpus builds the corpus service for the configured collection.
func (a *App) Corpus(ctx context.Context) (driving.CorpusService, error) {
	settings, err := a.pipelineSettings(a.settings.Get)
	if err != nil {
		return nil, err
	}
	store, err := a.corpusStore(ctx, settings.Corpus)
	if err != nil {
		return nil, err
	}
	return services.NewCorpusService(store, settings.Corpus), nil
}

// Close releases every adapter opened so far.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.providers.Close()
	if a.store != nil {
		err := a.store.Close()
		a.store = nil
		return err
	}
	return nil
}

func (a *App) pipelineSettings(get func() (*domain.AppSettings, error)) (*domain.AppSettings, error) {
	settings, err := get()
	if err != nil {
		return nil, err
	}
	if err := settings.Pipeline().Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (a *App) retriever(ctx context.Context, settings *domain.AppSettings) (*services.Retriever, error) {
	store, err := a.corpusStore(ctx, settings.Corpus)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embeddingService(ctx, settings.Embedding)
	if err != nil {
		return nil, err
	}
	return services.NewRetriever(embedder, store, settings.Pipeline(),
		services.WithMinScore(settings.Retrieval.MinScore)), nil
}

func (a *App) corpusStore(ctx context.Context, cfg domain.CorpusSettings) (driven.CorpusStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}

	var (
		store driven.CorpusStore
		err   error
	)
	switch cfg.Backend {
	case domain.CorpusBackendSQLite, "":
		dir := a.dataDir
		if cfg.Endpoint != "" {
			dir = cfg.Endpoint
		}
		store, err = sqlite.NewStore(dir)
	case domain.CorpusBackendPgvector:
		store, err = pgvector.NewStore(ctx, pgvector.Config{URL: cfg.Endpoint})
	case domain.CorpusBackendMemory:
		store = memory.NewCorpusStore()
	default:
		return nil, fmt.Errorf("%w: unknown corpus backend %q", domain.ErrConfiguration, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Corpus store: %s, collection %q", cfg.Backend, cfg.CollectionID)
	a.store = store
	return store, nil
}

func (a *App) embeddingService(ctx context.Context, cfg domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.providers.Embedding != nil {
		return a.providers.Embedding, nil
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Embedding with %s (%s, %d dims)", cfg.Provider, embedder.ModelName(), embedder.Dimensions())
	a.providers.Embedding = embedder
	return embedder, nil
}
