package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentLoader extracts the text of a corpus file.
type DocumentLoader interface {
	// Load reads the file at path and returns its text page by page.
	// A missing file returns domain.ErrNotFound, an unreadable or
	// non-PDF file returns domain.ErrInvalidFormat.
	Load(ctx context.Context, path string) (*domain.Document, error)
}

// Splitter cuts a document into bounded, overlapping chunks.
type Splitter interface {
	// Split returns the chunks of doc in document order.
	// An empty document yields an empty slice and no error.
	Split(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
