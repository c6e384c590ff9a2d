package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask questions
about the ingested document.

Tools:
  ask       - answer a question strictly from the document
  retrieve  - list the chunks most similar to a question

Resources:
  docqa://corpus - collection name, backend and chunk count

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  docqa mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docqa mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "docqa": {
        "command": "/path/to/docqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("llm", "", "LLM provider for the ask tool (openai, gemini, anthropic, ollama)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	provider, err := cmd.Flags().GetString("llm")
	if err != nil {
		return fmt.Errorf("getting llm flag: %w", err)
	}

	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	answers, err := rt.Answer(cmd.Context(), domain.AIProvider(provider))
	if err != nil {
		return withHint(err)
	}
	retrieval, err := rt.Retrieval(cmd.Context())
	if err != nil {
		return withHint(err)
	}
	settings, err := rt.Settings().Get()
	if err != nil {
		return withHint(err)
	}

	ports := &mcp.Ports{Answer: answers, Retrieval: retrieval}
	if corpus, err := rt.Corpus(cmd.Context()); err == nil {
		ports.Corpus = corpus
	} else {
		logger.Warn("corpus resource disabled: %v", err)
	}

	server, err := mcp.NewServer(ports,
		mcp.WithVersion(version),
		mcp.WithDefaultTopK(settings.Retrieval.TopK),
	)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	// stdout carries JSON-RPC in stdio mode.
	return server.Run(cmd.Context())
}
