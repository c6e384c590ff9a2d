// Package cli provides the docqa command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Options are the global flags a runtime is built from.
type Options struct {
	// ConfigDir holds config.toml, prompts/ and data/. Empty means ~/.docqa.
	ConfigDir string
}

// Runtime provides the core services to the commands.
// Services are built on demand so that each command only opens what it uses.
type Runtime interface {
	Settings() driving.SettingsService
	Ingestion(ctx context.Context) (driving.IngestionService, error)
	Retrieval(ctx context.Context) (driving.RetrievalService, error)
	// Answer builds the answer pipeline. A non-empty provider overrides
	// the configured LLM provider.
	Answer(ctx context.Context, provider domain.AIProvider) (driving.AnswerService, error)
	Corpus(ctx context.Context) (driving.CorpusService, error)
	Close() error
}

// RuntimeFactory builds the runtime once the global flags are parsed.
type RuntimeFactory func(opts Options) (Runtime, error)

var (
	version = "dev"

	verbose   bool
	configDir string
	envFile   string

	newRuntime RuntimeFactory
	active     Runtime
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Answer questions from your own documents",
	Long: `docqa ingests a PDF into a vector collection and answers questions
strictly from its content. When the document does not contain the answer,
docqa replies with a fixed refusal sentence instead of guessing.

Get started:
  docqa ingest relatorio.pdf
  docqa chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}
			logger.Debug("No %s file, using the process environment", envFile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages and debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docqa)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading settings")
}

// SetVersion sets the version printed by 'docqa version'.
func SetVersion(v string) {
	version = v
}

// SetRuntimeFactory sets how commands obtain their services.
func SetRuntimeFactory(f RuntimeFactory) {
	newRuntime = f
}

// Execute runs the root command and releases the runtime afterwards.
func Execute() error {
	defer closeRuntime()
	return rootCmd.Execute()
}

// currentRuntime builds the runtime on first use.
func currentRuntime() (Runtime, error) {
	if active != nil {
		return active, nil
	}
	if newRuntime == nil {
		return nil, errors.New("runtime not configured")
	}

	rt, err := newRuntime(Options{ConfigDir: configDir})
	if err != nil {
		return nil, err
	}
	active = rt
	return active, nil
}

func closeRuntime() {
	if active == nil {
		return
	}
	if err := active.Close(); err != nil {
		logger.Warn("closing runtime: %v", err)
	}
	active = nil
}

// settingsService returns the settings service of the current runtime.
func settingsService() (driving.SettingsService, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	return rt.Settings(), nil
}

// withHint adds a remedy to configuration and connectivity errors.
func withHint(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("%w\nCheck that the provider is reachable and the API key is valid", err)
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrUnsupportedProvider):
		return fmt.Errorf("%w\nRun 'docqa settings show' to review the configuration", err)
	default:
		return err
	}
}
