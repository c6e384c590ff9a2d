package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ProgressFunc observes ingestion state transitions. It may be nil.
type ProgressFunc func(domain.IngestProgress)

// IngestionService loads, chunks, embeds and stores a corpus document.
type IngestionService interface {
	// Ingest replaces the configured collection with the chunks of the
	// document at path and returns the number of records stored.
	// On any failure the returned count is zero and, unless the failure
	// happened while writing, the collection is left unchanged.
	Ingest(ctx context.Context, path string, onProgress ProgressFunc) (int, error)
}

// RetrievalService finds the chunks most similar to a question.
type RetrievalService interface {
	// Retrieve returns at most k chunks ordered by non-increasing score.
	// A blank question or k <= 0 returns domain.ErrInvalidArgument.
	Retrieve(ctx context.Context, question string, k int) (domain.RetrievedContext, error)
}

// AnswerService answers a question strictly from the stored corpus.
type AnswerService interface {
	// Answer returns the model output, or domain.RefusalSentence when the
	// corpus holds nothing relevant. Failures wrap domain.ErrAnswer.
	Answer(ctx context.Context, question string) (string, error)
}

// CorpusService inspects and manages the configured collection.
type CorpusService interface {
	// Status reports how many records the collection holds.
	Status(ctx context.Context) (domain.CollectionStatus, error)

	// Delete removes the collection and all of its records.
	Delete(ctx context.Context) error
}
