package cli

import (
	"github.com/spf13/cobra"
)

var corpusDeleteYes bool

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect and manage the corpus collection",
}

var corpusStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured collection and its record count",
	RunE:  runCorpusStatus,
}

var corpusDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the configured collection",
	Long: `Removes every record of the configured collection. Questions are refused
until a document is ingested again.`,
	RunE: runCorpusDelete,
}

func init() {
	corpusDeleteCmd.Flags().BoolVarP(&corpusDeleteYes, "yes", "y", false, "do not ask for confirmation")
	corpusCmd.AddCommand(corpusStatusCmd)
	corpusCmd.AddCommand(corpusDeleteCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusStatus(cmd *cobra.Command, _ []string) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	svc, err := rt.Corpus(cmd.Context())
	if err != nil {
		return withHint(err)
	}

	status, err := svc.Status(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Collection: %s\n", status.CollectionID)
	cmd.Printf("Backend: %s\n", status.Backend.Description())
	cmd.Printf("Records: %d\n", status.Records)
	if status.Records == 0 {
		cmd.Println("The collection is empty. Run 'docqa ingest <file.pdf>' first.")
	}
	return nil
}

func runCorpusDelete(cmd *cobra.Command, _ []string) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	svc, err := rt.Corpus(cmd.Context())
	if err != nil {
		return withHint(err)
	}

	status, err := svc.Status(cmd.Context())
	if err != nil {
		return err
	}
	if !corpusDeleteYes {
		cmd.Printf("Delete collection %q with %d records? [y/N]: ", status.CollectionID, status.Records)
		answer := readLine(newLineReader(cmd))
		if answer != "y" && answer != "Y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := svc.Delete(cmd.Context()); err != nil {
		return err
	}
	cmd.Printf("Deleted collection %q.\n", status.CollectionID)
	return nil
}
