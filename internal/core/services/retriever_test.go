package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func seededStore(t *testing.T, embedder *hashEmbedder, texts ...string) *memory.CorpusStore {
	t.Helper()
	store := memory.NewCorpusStore()
	records := make([]domain.CorpusRecord, len(texts))
	for i, text := range texts {
		records[i] = domain.CorpusRecord{
			Chunk:     domain.Chunk{ID: text, Text: text, Position: i},
			Embedding: embedder.vector(text),
		}
	}
	require.NoError(t, store.ReplaceCollection(context.Background(), "pdf_documents", records))
	return store
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	embedder := newHashEmbedder()
	store := seededStore(t, embedder,
		"receita anual cresceu",
		"a capital do brasil é brasília",
		"clima tropical úmido",
	)
	r := NewRetriever(embedder, store, testPipelineConfig())

	got, err := r.Retrieve(context.Background(), "qual é a capital do brasil", 2)

	require.NoError(t, err)
	assert.Equal(t, "qual é a capital do brasil", got.Question)
	assert.Equal(t, 2, got.K)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "a capital do brasil é brasília", got.Chunks[0].Chunk.Text)
	assert.GreaterOrEqual(t, got.Chunks[0].Score, got.Chunks[1].Score)
}

func TestRetrieve_FewerThanK(t *testing.T) {
	embedder := newHashEmbedder()
	r := NewRetriever(embedder, seededStore(t, embedder, "um", "dois"), testPipelineConfig())

	got, err := r.Retrieve(context.Background(), "um", 10)

	require.NoError(t, err)
	assert.Len(t, got.Chunks, 2)
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	r := NewRetriever(newHashEmbedder(), memory.NewCorpusStore(), testPipelineConfig())

	got, err := r.Retrieve(context.Background(), "qualquer coisa", 4)

	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestRetrieve_InvalidArgumentsSkipEmbedding(t *testing.T) {
	tests := []struct {
		name     string
		question string
		k        int
	}{
		{"empty question", "", 4},
		{"blank question", "  \n\t", 4},
		{"zero k", "pergunta", 0},
		{"negative k", "pergunta", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := newHashEmbedder()
			r := NewRetriever(embedder, memory.NewCorpusStore(), testPipelineConfig())

			_, err := r.Retrieve(context.Background(), tt.question, tt.k)

			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Zero(t, embedder.calls)
		})
	}
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	embedder := newHashEmbedder()
	embedder.err = errors.New("401 unauthorised")
	r := NewRetriever(embedder, memory.NewCorpusStore(), testPipelineConfig())

	_, err := r.Retrieve(context.Background(), "pergunta", 4)

	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "401")
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	store := memory.NewCorpusStore()
	require.NoError(t, store.ReplaceCollection(context.Background(), "pdf_documents", []domain.CorpusRecord{
		{Chunk: domain.Chunk{ID: "x", Text: "x"}, Embedding: []float32{1, 2, 3}},
	}))
	r := NewRetriever(newHashEmbedder(), store, testPipelineConfig())

	_, err := r.Retrieve(context.Background(), "pergunta", 4)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRetrieve_MinScoreFiltersWithoutReordering(t *testing.T) {
	embedder := newHashEmbedder()
	store := seededStore(t, embedder,
		"capital brasil brasília",
		"capital brasil",
		"receita anual",
	)

	unfiltered, err := NewRetriever(embedder, store, testPipelineConfig()).
		Retrieve(context.Background(), "capital brasil", 3)
	require.NoError(t, err)
	require.Len(t, unfiltered.Chunks, 3)

	floor := unfiltered.Chunks[1].Score
	filtered, err := NewRetriever(embedder, store, testPipelineConfig(), WithMinScore(floor)).
		Retrieve(context.Background(), "capital brasil", 3)

	require.NoError(t, err)
	require.Len(t, filtered.Chunks, 2)
	assert.Equal(t, unfiltered.Chunks[:2], filtered.Chunks)
}

func TestRetrieve_UsesConfiguredCollection(t *testing.T) {
	embedder := newHashEmbedder()
	store := seededStore(t, embedder, "conteúdo")
	cfg := testPipelineConfig()
	cfg.CollectionID = "outra"

	got, err := NewRetriever(embedder, store, cfg).Retrieve(context.Background(), "conteúdo", 4)

	require.NoError(t, err)
	assert.Empty(t, got.Chunks)
}
