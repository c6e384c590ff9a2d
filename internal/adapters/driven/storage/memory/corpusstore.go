package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore is an in-memory driven.CorpusStore using brute-force cosine
// similarity. Each collection is replaced by swapping a single slice, so a
// concurrent search sees either the old or the new content.
type CorpusStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.CorpusRecord

	// failInsert makes ReplaceCollection fail, for tests of callers.
	failInsert error
}

// NewCorpusStore creates an empty in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		collections: make(map[string][]domain.CorpusRecord),
	}
}

// FailInserts makes every subsequent ReplaceCollection return err
// (wrapped in domain.ErrStorage). Pass nil to clear.
func (s *CorpusStore) FailInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsert = err
}

// ReplaceCollection swaps the collection content for records.
func (s *CorpusStore) ReplaceCollection(ctx context.Context, collectionID string, records []domain.CorpusRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(collectionID) == "" {
		return fmt.Errorf("%w: empty collection id", domain.ErrInvalidArgument)
	}

	next := make([]domain.CorpusRecord, len(records))
	dims := -1
	for i, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %d has no embedding", domain.ErrStorage, i)
		}
		if dims >= 0 && len(r.Embedding) != dims {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				domain.ErrStorage, i, len(r.Embedding), dims)
		}
		dims = len(r.Embedding)

		r.CollectionID = collectionID
		r.Embedding = append([]float32(nil), r.Embedding...)
		next[i] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInsert != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, s.failInsert)
	}
	s.collections[collectionID] = next
	return nil
}

// DeleteCollection removes the collection.
func (s *CorpusStore) DeleteCollection(ctx context.Context, collectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collectionID)
	return nil
}

// SimilaritySearch returns the k records most similar to vec.
func (s *CorpusStore) SimilaritySearch(
	ctx context.Context, collectionID string, vec []float32, k int,
) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := s.collections[collectionID]
	s.mu.RUnlock()

	hits := make([]domain.ScoredChunk, 0, len(records))
	for _, r := range records {
		score, err := vector.Cosine(vec, r.Embedding)
		if err != nil {
			if errors.Is(err, vector.ErrDimensionMismatch) {
				return nil, fmt.Errorf("%w: query has %d dimensions, collection %q has %d",
					domain.ErrInvalidArgument, len(vec), collectionID, len(r.Embedding))
			}
			return nil, err
		}
		hits = append(hits, domain.ScoredChunk{Chunk: r.Chunk, Score: score})
	}

	return vector.TopK(hits, k), nil
}

// Count returns the number of records in the collection.
func (s *CorpusStore) Count(ctx context.Context, collectionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collectionID]), nil
}

// Close is a no-op.
func (s *CorpusStore) Close() error {
	return nil
}
