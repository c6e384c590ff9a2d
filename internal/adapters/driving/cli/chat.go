package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	chatLLM   string
	chatPlain bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the ingested document",
	Long: `Start an interactive session that answers one question at a time from
the ingested document. Each question is answered independently.

Type 'sair', 'exit', 'quit' or 'q' to leave. When stdin or stdout is not a
terminal, or --plain is set, a line based prompt is used instead of the
full screen interface.

Controls (full screen):
  Enter         - Ask
  PgUp/PgDown   - Scroll the conversation
  Esc           - Clear the input
  Ctrl+C        - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatLLM, "llm", "", "LLM provider for this session (openai, gemini, anthropic, ollama)")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use the line based prompt even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	answers, err := rt.Answer(cmd.Context(), domain.AIProvider(chatLLM))
	if err != nil {
		return withHint(err)
	}

	if chatPlain || !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return runChatLoop(cmd.Context(), answers, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	ports := &tui.Ports{Answer: answers}
	if corpus, err := rt.Corpus(cmd.Context()); err == nil {
		ports.Corpus = corpus
	} else {
		logger.Debug("corpus status unavailable: %v", err)
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// Log lines would corrupt the alternate screen.
	logger.SetVerbose(false)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runChatLoop answers questions read line by line from in until a quit
// word or end of input. A failed question is reported and the loop goes on.
func runChatLoop(ctx context.Context, answers driving.AnswerService, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(out, "Digite sua pergunta ou 'sair' para encerrar.")
	for {
		fmt.Fprint(out, "\nPERGUNTA: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch {
		case question == "":
			fmt.Fprintln(out, domain.EmptyQuestionHint)
			continue
		case domain.IsQuitCommand(question):
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		answer, err := answers.Answer(ctx, question)
		if err != nil {
			logger.Error("question failed: %v", err)
			fmt.Fprintf(out, "Erro ao processar pergunta: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "RESPOSTA: %s\n", answer)
	}
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
