package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf]",
	Short: "Ingest a PDF into the corpus",
	Long: `Loads a PDF, splits its pages into overlapping chunks, embeds them and
replaces the configured collection with the result.

Any previous content of the collection is removed. If loading, chunking or
embedding fails the collection is left as it was.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	svc, err := rt.Ingestion(cmd.Context())
	if err != nil {
		return withHint(err)
	}

	var last domain.IngestState
	stored, err := svc.Ingest(cmd.Context(), args[0], func(p domain.IngestProgress) {
		printProgress(cmd, p, last)
		last = p.State
	})
	if err != nil {
		return withHint(err)
	}

	cmd.Println()
	cmd.Printf("Ingestion complete: %d chunks stored.\n", stored)
	cmd.Println("Run 'docqa chat' to ask questions.")
	return nil
}

func printProgress(cmd *cobra.Command, p domain.IngestProgress, previous domain.IngestState) {
	switch p.State {
	case domain.IngestLoading:
		cmd.Printf("Loading %s\n", p.Path)
	case domain.IngestChunking:
		cmd.Printf("Loaded %d page(s)\n", p.Pages)
		cmd.Println("Splitting into chunks...")
	case domain.IngestEmbeddingAndStoring:
		cmd.Printf("Split into %d chunks\n", p.Chunks)
		cmd.Println("Embedding and storing...")
	case domain.IngestDone:
		cmd.Printf("Stored %d of %d chunks\n", p.Stored, p.Chunks)
	case domain.IngestFailed:
		cmd.Printf("Failed during %s\n", stageName(previous))
	}
}

func stageName(s domain.IngestState) string {
	if s == domain.IngestEmbeddingAndStoring {
		return "embedding and storing"
	}
	return s.String()
}
