// Package tui provides the interactive chat interface for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Answer answers one question at a time (required).
	Answer driving.AnswerService

	// Corpus reports the collection size in the status bar (optional).
	Corpus driving.CorpusService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingAnswerService)
	}
	return nil
}
