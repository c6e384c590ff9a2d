package domain

import "strings"

// EmptyQuestionHint is shown when a chat turn is blank. Blank turns are
// never sent to the pipeline.
const EmptyQuestionHint = "Por favor, digite uma pergunta válida."

// quitWords end an interactive chat session.
var quitWords = []string{"sair", "exit", "quit", "q"}

// IsQuitCommand reports whether input asks to end a chat session.
// Matching ignores case and surrounding whitespace.
func IsQuitCommand(input string) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, w := range quitWords {
		if input == w {
			return true
		}
	}
	return false
}
