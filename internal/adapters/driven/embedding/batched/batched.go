// Package batched wraps an embedding service so large inputs are sent in
// bounded, rate-limited batches.
package batched

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default limits, sized for free-tier per-minute quotas.
const (
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 5
)

// Config controls batching and throttling.
type Config struct {
	// BatchSize is the maximum number of texts per provider call (default: 64).
	BatchSize int

	// RequestsPerSecond is the sustained call rate. Negative disables throttling.
	RequestsPerSecond float64

	// Burst is the number of calls allowed back to back (default: 5).
	Burst int
}

// EmbeddingService splits EmbedBatch calls across the wrapped service.
type EmbeddingService struct {
	inner     driven.EmbeddingService
	batchSize int
	limiter   *rate.Limiter
}

// New wraps inner.
func New(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}

	limit := rate.Limit(cfg.RequestsPerSecond)
	switch {
	case cfg.RequestsPerSecond < 0:
		limit = rate.Inf
	case cfg.RequestsPerSecond == 0:
		limit = rate.Limit(DefaultRequestsPerSecond)
	}

	return &EmbeddingService{
		inner:     inner,
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
	}
}

// Embed embeds a single text through the limiter.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch embeds texts in consecutive slices of at most BatchSize and
// concatenates the results, so output order matches input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := s.inner.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("batch %d-%d: got %d vectors for %d texts",
				start, end, len(vectors), end-start)
		}

		logger.Debug("embedding: batch %d-%d of %d done", start, end, len(texts))
		out = append(out, vectors...)
	}

	return out, nil
}

// BatchSize returns the configured batch size.
func (s *EmbeddingService) BatchSize() int {
	return s.batchSize
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
