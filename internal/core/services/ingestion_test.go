package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

func newIngestion(t *testing.T, loader *fakeLoader, embedder *hashEmbedder, store driven.CorpusStore, size, overlap int) *IngestionService {
	t.Helper()
	splitter, err := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	require.NoError(t, err)
	return NewIngestionService(loader, splitter, embedder, store, testPipelineConfig())
}

// storedTexts returns the sorted text of every record in the default collection.
func storedTexts(t *testing.T, store driven.CorpusStore, embedder *hashEmbedder) []string {
	t.Helper()
	ctx := context.Background()
	query, err := embedder.Embed(ctx, "palavra frase")
	require.NoError(t, err)
	results, err := store.SimilaritySearch(ctx, "pdf_documents", query, 1000)
	require.NoError(t, err)

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	sort.Strings(texts)
	return texts
}

func pages(texts ...string) *domain.Document {
	doc := &domain.Document{}
	for i, text := range texts {
		doc.Pages = append(doc.Pages, domain.Page{Index: i, Text: text})
	}
	return doc
}

func TestIngest_StoresEveryChunk(t *testing.T) {
	store := memory.NewCorpusStore()
	embedder := newHashEmbedder()
	text := strings.Repeat("O relatório descreve as vendas trimestrais da empresa. ", 60)
	svc := newIngestion(t, &fakeLoader{doc: pages(text, "", text)}, embedder, store, 300, 50)

	var states []domain.IngestState
	var last domain.IngestProgress
	n, err := svc.Ingest(context.Background(), "/docs/relatorio.pdf", func(p domain.IngestProgress) {
		states = append(states, p.State)
		last = p
	})

	require.NoError(t, err)
	assert.Greater(t, n, 2)
	count, err := store.Count(context.Background(), "pdf_documents")
	require.NoError(t, err)
	assert.Equal(t, n, count)
	assert.Equal(t, []domain.IngestState{
		domain.IngestLoading, domain.IngestChunking, domain.IngestEmbeddingAndStoring, domain.IngestDone,
	}, states)
	assert.Equal(t, 3, last.Pages)
	assert.Equal(t, n, last.Chunks)
	assert.Equal(t, n, last.Embedded)
	assert.Equal(t, n, last.Stored)
	assert.NoError(t, last.Err)
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestIngest_NilProgressIsAllowed(t *testing.T) {
	svc := newIngestion(t, &fakeLoader{doc: pages("A capital do Brasil é Brasília.")}, newHashEmbedder(), memory.NewCorpusStore(), 1000, 150)

	n, err := svc.Ingest(context.Background(), "/docs/a.pdf", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngest_ReplacesPreviousContent(t *testing.T) {
	store := memory.NewCorpusStore()
	ctx := context.Background()

	first := newIngestion(t, &fakeLoader{doc: pages(strings.Repeat("palavra ", 400))}, newHashEmbedder(), store, 200, 20)
	n1, err := first.Ingest(ctx, "/docs/longo.pdf", nil)
	require.NoError(t, err)
	require.Greater(t, n1, 1)

	second := newIngestion(t, &fakeLoader{doc: pages("Só uma frase.")}, newHashEmbedder(), store, 200, 20)
	n2, err := second.Ingest(ctx, "/docs/curto.pdf", nil)
	require.NoError(t, err)

	count, err := store.Count(ctx, "pdf_documents")
	require.NoError(t, err)
	assert.Equal(t, 1, n2)
	assert.Equal(t, 1, count)

	texts := storedTexts(t, store, newHashEmbedder())
	assert.Equal(t, []string{"Só uma frase."}, texts)
	for _, text := range texts {
		assert.NotContains(t, text, "palavra")
	}
}

func TestIngest_SameDocumentTwiceIsIdempotent(t *testing.T) {
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	embedder := newHashEmbedder()
	doc := pages(
		strings.Repeat("A capital do Brasil é Brasília. ", 30),
		strings.Repeat("O rio Amazonas atravessa a floresta. ", 30),
	)

	first := newIngestion(t, &fakeLoader{doc: doc}, embedder, store, 200, 20)
	n1, err := first.Ingest(ctx, "/docs/brasil.pdf", nil)
	require.NoError(t, err)
	count1, err := store.Count(ctx, "pdf_documents")
	require.NoError(t, err)
	texts1 := storedTexts(t, store, embedder)

	second := newIngestion(t, &fakeLoader{doc: doc}, embedder, store, 200, 20)
	n2, err := second.Ingest(ctx, "/docs/brasil.pdf", nil)
	require.NoError(t, err)
	count2, err := store.Count(ctx, "pdf_documents")
	require.NoError(t, err)

	require.Greater(t, n1, 2)
	assert.Equal(t, n1, n2)
	assert.Equal(t, n1, count1)
	assert.Equal(t, count1, count2)
	assert.Len(t, texts1, count1)
	assert.Equal(t, texts1, storedTexts(t, store, embedder))
}

func TestIngest_LoaderErrorsPassThrough(t *testing.T) {
	for _, sentinel := range []error{domain.ErrNotFound, domain.ErrInvalidFormat} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			embedder := newHashEmbedder()
			svc := newIngestion(t, &fakeLoader{err: fmt.Errorf("%w: /x.pdf", sentinel)}, embedder, memory.NewCorpusStore(), 1000, 150)

			var final domain.IngestProgress
			n, err := svc.Ingest(context.Background(), "/x.pdf", func(p domain.IngestProgress) { final = p })

			assert.ErrorIs(t, err, sentinel)
			assert.Zero(t, n)
			assert.Equal(t, domain.IngestFailed, final.State)
			assert.ErrorIs(t, final.Err, sentinel)
			assert.Zero(t, embedder.batchCalls)
		})
	}
}

func TestIngest_EmptyDocumentLeavesCorpusUntouched(t *testing.T) {
	store := memory.NewCorpusStore()
	ctx := context.Background()
	require.NoError(t, store.ReplaceCollection(ctx, "pdf_documents", []domain.CorpusRecord{
		{Chunk: domain.Chunk{ID: "old", Text: "antigo"}, Embedding: []float32{1, 0}},
	}))
	embedder := newHashEmbedder()
	svc := newIngestion(t, &fakeLoader{doc: pages("   ", "\n\n")}, embedder, store, 1000, 150)

	n, err := svc.Ingest(ctx, "/docs/scan.pdf", nil)

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Zero(t, n)
	assert.Zero(t, embedder.batchCalls)
	count, err := store.Count(ctx, "pdf_documents")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngest_EmbeddingFailuresAbortBeforeStoring(t *testing.T) {
	tests := []struct {
		name   string
		modify func(h *hashEmbedder)
	}{
		{"provider error", func(h *hashEmbedder) { h.err = errors.New("quota exceeded") }},
		{"fewer vectors", func(h *hashEmbedder) {
			h.mangle = func(v [][]float32) [][]float32 { return v[:len(v)-1] }
		}},
		{"mixed dimensions", func(h *hashEmbedder) {
			h.mangle = func(v [][]float32) [][]float32 {
				v[len(v)-1] = v[len(v)-1][:3]
				return v
			}
		}},
		{"unexpected dimension", func(h *hashEmbedder) {
			h.mangle = func(v [][]float32) [][]float32 {
				for i := range v {
					v[i] = append(v[i], 0)
				}
				return v
			}
		}},
		{"empty vector", func(h *hashEmbedder) {
			h.mangle = func(v [][]float32) [][]float32 {
				v[0] = nil
				return v
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewCorpusStore()
			ctx := context.Background()
			require.NoError(t, store.ReplaceCollection(ctx, "pdf_documents", []domain.CorpusRecord{
				{Chunk: domain.Chunk{ID: "old", Text: "antigo"}, Embedding: make([]float32, 64)},
			}))
			embedder := newHashEmbedder()
			tt.modify(embedder)
			svc := newIngestion(t, &fakeLoader{doc: pages(strings.Repeat("texto de teste ", 100))}, embedder, store, 200, 20)

			n, err := svc.Ingest(ctx, "/docs/a.pdf", nil)

			assert.ErrorIs(t, err, domain.ErrEmbedding)
			assert.Zero(t, n)
			count, err := store.Count(ctx, "pdf_documents")
			require.NoError(t, err)
			assert.Equal(t, 1, count, "previous content must survive")
		})
	}
}

func TestIngest_StorageFailure(t *testing.T) {
	store := memory.NewCorpusStore()
	store.FailInserts(errors.New("connection reset"))
	svc := newIngestion(t, &fakeLoader{doc: pages("conteúdo")}, newHashEmbedder(), store, 1000, 150)

	n, err := svc.Ingest(context.Background(), "/docs/a.pdf", nil)

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Zero(t, n)
}

func TestIngest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newIngestion(t, &fakeLoader{doc: pages("conteúdo")}, newHashEmbedder(), memory.NewCorpusStore(), 1000, 150)

	_, err := svc.Ingest(ctx, "/docs/a.pdf", nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngest_RecordsCarryChunkMetadata(t *testing.T) {
	store := memory.NewCorpusStore()
	svc := newIngestion(t, &fakeLoader{doc: pages("primeira página", "segunda página")}, newHashEmbedder(), store, 1000, 150)

	_, err := svc.Ingest(context.Background(), "/docs/duas.pdf", nil)
	require.NoError(t, err)

	hits, err := store.SimilaritySearch(context.Background(), "pdf_documents", newHashEmbedder().vector("segunda página"), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "segunda página", hits[0].Chunk.Text)
	assert.Equal(t, 1, hits[0].Chunk.SourcePage)
	assert.Equal(t, "/docs/duas.pdf", hits[0].Chunk.Metadata["source"])
}
