package driven

// PromptStore provides access to answer prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Built-in names always resolve; unknown names without a backing file
	// return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Placeholders every answer prompt template must contain exactly as written.
const (
	// PlaceholderContext is replaced by the formatted retrieved chunks.
	PlaceholderContext = "{context}"

	// PlaceholderQuestion is replaced by the user question.
	PlaceholderQuestion = "{question}"
)
