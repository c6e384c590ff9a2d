// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a non-blank question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the pipeline result for one question back to the model.
type AnswerReceived struct {
	Question string
	Answer   string
	Err      error
}

// StatusLoaded carries the collection status shown in the status bar.
type StatusLoaded struct {
	Status domain.CollectionStatus
	Err    error
}

// ErrorOccurred is sent when an error occurs outside a question.
type ErrorOccurred struct {
	Err error
}

// Quit is sent to exit the application.
type Quit struct{}
