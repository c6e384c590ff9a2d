package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Answer answers questions from the corpus.
	Answer driving.AnswerService

	// Retrieval returns the ranked chunks for a question.
	Retrieval driving.RetrievalService

	// Corpus reports the collection status (optional).
	Corpus driving.CorpusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
