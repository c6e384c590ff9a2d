package services

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// CorpusService reports on and deletes the configured collection.
type CorpusService struct {
	store        driven.CorpusStore
	backend      domain.CorpusBackend
	collectionID string
}

// NewCorpusService creates a corpus service for settings.CollectionID.
func NewCorpusService(store driven.CorpusStore, settings domain.CorpusSettings) *CorpusService {
	return &CorpusService{
		store:        store,
		backend:      settings.Backend,
		collectionID: settings.CollectionID,
	}
}

// Status reports how many records the collection holds.
func (s *CorpusService) Status(ctx context.Context) (domain.CollectionStatus, error) {
	n, err := s.store.Count(ctx, s.collectionID)
	if err != nil {
		return domain.CollectionStatus{}, err
	}
	return domain.CollectionStatus{
		CollectionID: s.collectionID,
		Records:      n,
		Backend:      s.backend,
	}, nil
}

// Delete removes the collection and all of its records.
func (s *CorpusService) Delete(ctx context.Context) error {
	return s.store.DeleteCollection(ctx, s.collectionID)
}
