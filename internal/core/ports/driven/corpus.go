package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// CorpusStore persists embedded chunks per named collection and answers
// nearest-neighbour queries.
//
// Implementations:
//   - pgvector (PostgreSQL, the reference deployment)
//   - sqlite (local file, brute-force cosine)
//   - memory (tests and throwaway sessions)
type CorpusStore interface {
	// ReplaceCollection drops every record of the collection and inserts records.
	// A missing collection is not an error, and a failure while deleting the
	// previous content is logged and ignored. Insert failures return
	// domain.ErrStorage. Readers never observe a half-written collection.
	ReplaceCollection(ctx context.Context, collectionID string, records []domain.CorpusRecord) error

	// DeleteCollection removes the collection. A missing collection is not an error.
	DeleteCollection(ctx context.Context, collectionID string) error

	// SimilaritySearch returns at most k records ordered by non-increasing
	// similarity to vector. k <= 0 returns domain.ErrInvalidArgument.
	// A missing or empty collection returns an empty slice.
	SimilaritySearch(ctx context.Context, collectionID string, vector []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of records stored in the collection.
	Count(ctx context.Context, collectionID string) (int, error)

	// Close releases resources.
	Close() error
}
