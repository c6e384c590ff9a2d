package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var askLLM string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the corpus",
	Long: `Retrieves the chunks closest to the question and asks the language model
to answer from them only. Prints the answer, or the refusal sentence when the
corpus does not contain it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askLLM, "llm", "", "LLM provider for this question (openai, gemini, anthropic, ollama)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidArgument)
	}

	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	svc, err := rt.Answer(cmd.Context(), domain.AIProvider(askLLM))
	if err != nil {
		return withHint(err)
	}

	answer, err := svc.Answer(cmd.Context(), question)
	if err != nil {
		return withHint(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
