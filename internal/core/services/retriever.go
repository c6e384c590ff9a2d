package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever embeds a question and returns the nearest chunks of a collection.
type Retriever struct {
	embedder     driven.EmbeddingService
	store        driven.CorpusStore
	collectionID string
	minScore     float64
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithMinScore drops hits scoring below floor. Zero disables the filter.
func WithMinScore(floor float64) RetrieverOption {
	return func(r *Retriever) {
		r.minScore = floor
	}
}

// NewRetriever creates a retriever over cfg.CollectionID.
func NewRetriever(
	embedder driven.EmbeddingService,
	store driven.CorpusStore,
	cfg domain.PipelineConfig,
	opts ...RetrieverOption,
) *Retriever {
	r := &Retriever{
		embedder:     embedder,
		store:        store,
		collectionID: cfg.CollectionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most k chunks in store order.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (domain.RetrievedContext, error) {
	if strings.TrimSpace(question) == "" {
		return domain.RetrievedContext{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidArgument)
	}
	if k <= 0 {
		return domain.RetrievedContext{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return domain.RetrievedContext{}, ctx.Err()
		}
		return domain.RetrievedContext{}, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}

	hits, err := r.store.SimilaritySearch(ctx, r.collectionID, vector, k)
	if err != nil {
		return domain.RetrievedContext{}, err
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	if r.minScore != 0 {
		kept := make([]domain.ScoredChunk, 0, len(hits))
		for _, h := range hits {
			if h.Score >= r.minScore {
				kept = append(kept, h)
			}
		}
		logger.Debug("min_score %.3f kept %d of %d hits", r.minScore, len(kept), len(hits))
		hits = kept
	}

	logger.Debug("Retrieved %d chunks (k=%d) from %q", len(hits), k, r.collectionID)
	return domain.RetrievedContext{Question: question, K: k, Chunks: hits}, nil
}
