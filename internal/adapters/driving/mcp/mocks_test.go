package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   string
	err      error
	question string
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (string, error) {
	m.question = question
	return m.answer, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	chunks []domain.ScoredChunk
	err    error
	k      int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, question string, k int) (domain.RetrievedContext, error) {
	m.k = k
	if m.err != nil {
		return domain.RetrievedContext{}, m.err
	}
	return domain.RetrievedContext{Question: question, K: k, Chunks: m.chunks}, nil
}

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	status domain.CollectionStatus
	err    error
}

func (m *mockCorpusService) Status(_ context.Context) (domain.CollectionStatus, error) {
	return m.status, m.err
}

func (m *mockCorpusService) Delete(_ context.Context) error {
	return m.err
}

func validPorts() *Ports {
	return &Ports{
		Answer:    &mockAnswerService{},
		Retrieval: &mockRetrievalService{},
	}
}
