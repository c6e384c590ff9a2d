package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func record(id string, vec ...float32) domain.CorpusRecord {
	return domain.CorpusRecord{
		Chunk:     domain.Chunk{ID: id, Text: "text " + id},
		Embedding: vec,
	}
}

func TestCorpusStore_ReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()

	err := store.ReplaceCollection(ctx, "pdf_documents", []domain.CorpusRecord{
		record("east", 1, 0),
		record("north", 0, 1),
		record("northeast", 1, 1),
	})
	require.NoError(t, err)

	hits, err := store.SimilaritySearch(ctx, "pdf_documents", []float32{1, 0.1}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].Chunk.ID)
	assert.Equal(t, "northeast", hits[1].Chunk.ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestCorpusStore_ReplaceDropsPreviousContent(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()

	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("old1", 1, 0), record("old2", 0, 1)}))
	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("new", 1, 0)}))

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := store.SimilaritySearch(ctx, "c", []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Chunk.ID)
}

func TestCorpusStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()

	require.NoError(t, store.ReplaceCollection(ctx, "a", []domain.CorpusRecord{record("a1", 1, 0)}))
	require.NoError(t, store.ReplaceCollection(ctx, "b", []domain.CorpusRecord{record("b1", 1, 0)}))

	hits, err := store.SimilaritySearch(ctx, "a", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0].Chunk.ID)
}

func TestCorpusStore_SearchMissingCollection(t *testing.T) {
	hits, err := NewCorpusStore().SimilaritySearch(context.Background(), "missing", []float32{1}, 3)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCorpusStore_SearchInvalidK(t *testing.T) {
	store := NewCorpusStore()
	for _, k := range []int{0, -1} {
		_, err := store.SimilaritySearch(context.Background(), "c", []float32{1}, k)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestCorpusStore_SearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("x", 1, 0, 0)}))

	_, err := store.SimilaritySearch(ctx, "c", []float32{1, 0}, 1)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCorpusStore_ReplaceRejectsMixedDimensions(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("keep", 1, 0)}))

	err := store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("a", 1, 0), record("b", 1, 0, 0)})

	assert.ErrorIs(t, err, domain.ErrStorage)
	count, _ := store.Count(ctx, "c")
	assert.Equal(t, 1, count, "failed replace must leave the collection unchanged")
}

func TestCorpusStore_FailInserts(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	store.FailInserts(errors.New("disk full"))

	err := store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("a", 1)})

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "disk full")

	store.FailInserts(nil)
	assert.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("a", 1)}))
}

func TestCorpusStore_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{
		record("first", 1, 0),
		record("second", 1, 0),
		record("third", 1, 0),
	}))

	hits, err := store.SimilaritySearch(ctx, "c", []float32{1, 0}, 3)

	require.NoError(t, err)
	assert.Equal(t, "first", hits[0].Chunk.ID)
	assert.Equal(t, "second", hits[1].Chunk.ID)
	assert.Equal(t, "third", hits[2].Chunk.ID)
}

func TestCorpusStore_DeleteCollection(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{record("a", 1)}))

	require.NoError(t, store.DeleteCollection(ctx, "c"))
	require.NoError(t, store.DeleteCollection(ctx, "never-existed"))

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCorpusStore_CopiesEmbeddings(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	vec := []float32{1, 0}
	require.NoError(t, store.ReplaceCollection(ctx, "c", []domain.CorpusRecord{{Chunk: domain.Chunk{ID: "a"}, Embedding: vec}}))

	vec[0], vec[1] = 0, 1

	hits, err := store.SimilaritySearch(ctx, "c", []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestCorpusStore_ConcurrentReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			records := make([]domain.CorpusRecord, 5)
			for j := range records {
				records[j] = record(fmt.Sprintf("gen%d-%d", n, j), 1, float32(j))
			}
			_ = store.ReplaceCollection(ctx, "c", records)
		}(i)
		go func() {
			defer wg.Done()
			hits, err := store.SimilaritySearch(ctx, "c", []float32{1, 0}, 10)
			assert.NoError(t, err)
			assert.True(t, len(hits) == 0 || len(hits) == 5)
		}()
	}
	wg.Wait()
}

func TestCorpusStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewCorpusStore()

	assert.ErrorIs(t, store.ReplaceCollection(ctx, "c", nil), context.Canceled)
	_, err := store.SimilaritySearch(ctx, "c", []float32{1}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
