package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions from the retrieved context only.
type AnswerService struct {
	retriever driving.RetrievalService
	assembler *PromptAssembler
	llm       driven.LLMService
	topK      int
}

// NewAnswerService creates an answer service retrieving cfg.TopK chunks per question.
func NewAnswerService(
	retriever driving.RetrievalService,
	assembler *PromptAssembler,
	llm driven.LLMService,
	cfg domain.PipelineConfig,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		assembler: assembler,
		llm:       llm,
		topK:      cfg.TopK,
	}
}

// Answer retrieves, assembles and generates once. An empty retrieval returns
// domain.RefusalSentence without calling the model.
func (s *AnswerService) Answer(ctx context.Context, question string) (string, error) {
	logger.Section("Answer")
	logger.Debug("Question: %q", question)

	retrieved, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAnswer, err)
	}
	if retrieved.IsEmpty() {
		logger.Debug("No chunks retrieved, refusing")
		return domain.RefusalSentence, nil
	}

	prompt := s.assembler.BuildPrompt(s.assembler.FormatContext(retrieved.Chunks), question)
	logger.Debug("Prompt: %d chunks, %d bytes, template %q", len(retrieved.Chunks), len(prompt), s.assembler.Name())

	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: driven.Temperature(0)})
	if err != nil {
		return "", fmt.Errorf("%w: %w: %w", domain.ErrAnswer, domain.ErrGeneration, err)
	}

	return answer, nil
}
