package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// contextSeparator joins retrieved chunks in the prompt.
const contextSeparator = "\n\n"

// PromptAssembler renders the answer prompt from a template.
type PromptAssembler struct {
	name     string
	template string
}

// NewPromptAssembler validates template and returns an assembler for it.
// The template must contain both {context} and {question}.
func NewPromptAssembler(name, template string) (*PromptAssembler, error) {
	for _, p := range []string{driven.PlaceholderContext, driven.PlaceholderQuestion} {
		if !strings.Contains(template, p) {
			return nil, fmt.Errorf("%w: template %q is missing the %s placeholder", domain.ErrConfiguration, name, p)
		}
	}
	return &PromptAssembler{name: name, template: template}, nil
}

// LoadPromptAssembler loads the named template from store.
func LoadPromptAssembler(store driven.PromptStore, name string) (*PromptAssembler, error) {
	template, err := store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return NewPromptAssembler(name, template)
}

// Name returns the template name.
func (a *PromptAssembler) Name() string {
	return a.name
}

// FormatContext joins chunk texts in ranking order, separated by a blank line.
func (a *PromptAssembler) FormatContext(chunks []domain.ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Chunk.Text
	}
	return strings.Join(texts, contextSeparator)
}

// BuildPrompt substitutes both placeholders in one pass. Placeholder text
// inside the substituted values is left as is.
func (a *PromptAssembler) BuildPrompt(context, question string) string {
	r := strings.NewReplacer(
		driven.PlaceholderContext, context,
		driven.PlaceholderQuestion, question,
	)
	return r.Replace(a.template)
}
