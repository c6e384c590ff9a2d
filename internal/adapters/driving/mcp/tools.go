package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested document"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`
	// Refused is true when the document does not contain the answer.
	Refused bool `json:"refused"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question string `json:"question" jsonschema:"the question to find related chunks for"`
	K        int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (defaults to the configured retrieval.top_k)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	Page     int     `json:"page"`
	Position int     `json:"position"`
	Text     string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question strictly from the ingested document. " +
			"Returns a fixed refusal sentence when the document does not contain the answer.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the document chunks most similar to a question, ranked by score",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidArgument)
	}

	answer, err := s.ports.Answer.Answer(ctx, question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer,
		Refused: strings.TrimSpace(answer) == domain.RefusalSentence,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.K
	switch {
	case k < 0:
		return nil, RetrieveOutput{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	case k == 0:
		k = s.topK
	}

	retrieved, err := s.ports.Retrieval.Retrieve(ctx, input.Question, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(retrieved.Chunks)),
		Count:  len(retrieved.Chunks),
	}
	for i, sc := range retrieved.Chunks {
		output.Chunks[i] = ChunkOutput{
			Rank:     i + 1,
			Score:    sc.Score,
			Page:     sc.Chunk.SourcePage,
			Position: sc.Chunk.Position,
			Text:     sc.Chunk.Text,
		}
	}

	return nil, output, nil
}
