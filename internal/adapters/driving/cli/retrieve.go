package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	retrieveK    int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Show the chunks retrieved for a question",
	Long: `Embeds the question and prints the k most similar chunks with their
similarity scores, without calling the language model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "top-k", "k", 0, "number of chunks to retrieve (default retrieval.top_k)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	svc, err := rt.Retrieval(cmd.Context())
	if err != nil {
		return withHint(err)
	}

	k := retrieveK
	if !cmd.Flags().Changed("top-k") {
		settings, err := rt.Settings().Get()
		if err != nil {
			return withHint(err)
		}
		k = settings.Retrieval.TopK
	}

	result, err := svc.Retrieve(cmd.Context(), strings.Join(args, " "), k)
	if err != nil {
		return withHint(err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, result)
	}
	outputRetrieveTable(cmd, result)
	return nil
}

type retrievedChunk struct {
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	Page     int     `json:"page"`
	Position int     `json:"position"`
	Text     string  `json:"text"`
}

func outputRetrieveJSON(cmd *cobra.Command, result domain.RetrievedContext) error {
	chunks := make([]retrievedChunk, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = retrievedChunk{
			Rank:     i + 1,
			Score:    c.Score,
			Page:     c.Chunk.SourcePage,
			Position: c.Chunk.Position,
			Text:     c.Chunk.Text,
		}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, result domain.RetrievedContext) {
	out := cmd.OutOrStdout()
	if result.IsEmpty() {
		fmt.Fprintln(out, "No chunks found.")
		return
	}

	for i, c := range result.Chunks {
		// Format: [N] (score) page P, chunk C
		fmt.Fprintf(out, "[%d] (%.4f) page %d, chunk %d\n", i+1, c.Score, c.Chunk.SourcePage, c.Chunk.Position)
		fmt.Fprintf(out, "    %s\n\n", snippet(c.Chunk.Text, 200))
	}
}

// snippet flattens whitespace and cuts text to at most limit runes.
func snippet(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
