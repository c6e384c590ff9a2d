package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService turns one PDF into the stored records of a collection.
type IngestionService struct {
	loader       driven.DocumentLoader
	splitter     driven.Splitter
	embedder     driven.EmbeddingService
	store        driven.CorpusStore
	collectionID string
}

// NewIngestionService creates an ingestion service writing to cfg.CollectionID.
func NewIngestionService(
	loader driven.DocumentLoader,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	store driven.CorpusStore,
	cfg domain.PipelineConfig,
) *IngestionService {
	return &IngestionService{
		loader:       loader,
		splitter:     splitter,
		embedder:     embedder,
		store:        store,
		collectionID: cfg.CollectionID,
	}
}

// Ingest runs Loading, Chunking and Embedding&Storing in order and returns
// the number of records stored. Nothing is written unless every chunk was
// embedded.
func (s *IngestionService) Ingest(ctx context.Context, path string, onProgress driving.ProgressFunc) (int, error) {
	logger.Section("Ingestion")
	progress := domain.IngestProgress{Path: path}

	report := func(state domain.IngestState) {
		progress.State = state
		logger.Stage("ingest", state.String())
		if onProgress != nil {
			onProgress(progress)
		}
	}
	fail := func(err error) (int, error) {
		progress.Err = err
		report(domain.IngestFailed)
		return 0, err
	}

	report(domain.IngestLoading)
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return fail(err)
	}
	progress.Pages = len(doc.Pages)
	logger.Debug("Loaded %d pages from %s", progress.Pages, path)

	report(domain.IngestChunking)
	chunks, err := s.splitter.Split(ctx, doc)
	if err != nil {
		return fail(err)
	}
	if len(chunks) == 0 {
		return fail(fmt.Errorf("%w: %s has no extractable text", domain.ErrEmptyDocument, path))
	}
	progress.Chunks = len(chunks)
	logger.Debug("Split into %d chunks", progress.Chunks)

	report(domain.IngestEmbeddingAndStoring)
	records, err := s.embed(ctx, chunks)
	if err != nil {
		return fail(err)
	}
	progress.Embedded = len(records)

	if err := s.store.ReplaceCollection(ctx, s.collectionID, records); err != nil {
		if !errors.Is(err, domain.ErrStorage) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
		return fail(err)
	}
	progress.Stored = len(records)
	logger.Info("Stored %d records in collection %q", progress.Stored, s.collectionID)

	report(domain.IngestDone)
	return progress.Stored, nil
}

// embed vectorises every chunk and checks the provider returned one
// vector of a single dimension per chunk.
func (s *IngestionService) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.CorpusRecord, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	dims := s.embedder.Dimensions()
	if dims == 0 {
		dims = len(vectors[0])
	}

	records := make([]domain.CorpusRecord, len(chunks))
	for i := range chunks {
		if len(vectors[i]) == 0 || len(vectors[i]) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				domain.ErrEmbedding, i, len(vectors[i]), dims)
		}
		records[i] = domain.CorpusRecord{
			Chunk:        chunks[i],
			Embedding:    vectors[i],
			CollectionID: s.collectionID,
		}
	}
	return records, nil
}
