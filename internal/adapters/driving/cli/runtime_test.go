package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// fakeRuntime hands out canned services and records how it was used.
type fakeRuntime struct {
	settings  driving.SettingsService
	ingestion driving.IngestionService
	retrieval driving.RetrievalService
	answer    driving.AnswerService
	corpus    driving.CorpusService

	err      error
	provider domain.AIProvider
	closed   bool
}

func (f *fakeRuntime) Settings() driving.SettingsService { return f.settings }

func (f *fakeRuntime) Ingestion(context.Context) (driving.IngestionService, error) {
	return f.ingestion, f.err
}

func (f *fakeRuntime) Retrieval(context.Context) (driving.RetrievalService, error) {
	return f.retrieval, f.err
}

func (f *fakeRuntime) Answer(_ context.Context, provider domain.AIProvider) (driving.AnswerService, error) {
	f.provider = provider
	return f.answer, f.err
}

func (f *fakeRuntime) Corpus(context.Context) (driving.CorpusService, error) {
	return f.corpus, f.err
}

func (f *fakeRuntime) Close() error {
	f.closed = true
	return nil
}

type fakeIngestion struct {
	progress []domain.IngestProgress
	stored   int
	err      error
	path     string
}

func (f *fakeIngestion) Ingest(_ context.Context, path string, onProgress driving.ProgressFunc) (int, error) {
	f.path = path
	for _, p := range f.progress {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return f.stored, f.err
}

type fakeRetrieval struct {
	chunks   []domain.ScoredChunk
	err      error
	question string
	k        int
}

func (f *fakeRetrieval) Retrieve(_ context.Context, question string, k int) (domain.RetrievedContext, error) {
	f.question = question
	f.k = k
	if f.err != nil {
		return domain.RetrievedContext{}, f.err
	}
	return domain.RetrievedContext{Question: question, K: k, Chunks: f.chunks}, nil
}

type fakeAnswer struct {
	answers   map[string]string
	errs      map[string]error
	questions []string
}

func (f *fakeAnswer) Answer(_ context.Context, question string) (string, error) {
	f.questions = append(f.questions, question)
	if err, ok := f.errs[question]; ok {
		return "", err
	}
	if a, ok := f.answers[question]; ok {
		return a, nil
	}
	return domain.RefusalSentence, nil
}

type fakeCorpus struct {
	status  domain.CollectionStatus
	err     error
	deleted bool
}

func (f *fakeCorpus) Status(context.Context) (domain.CollectionStatus, error) {
	return f.status, f.err
}

func (f *fakeCorpus) Delete(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = true
	f.status.Records = 0
	return nil
}

// newSettings returns a settings service backed by a temporary config file.
func newSettings(t *testing.T) *services.SettingsService {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return services.NewSettingsService(store, ai.NewConfigValidator())
}

// execute runs the root command against rt and returns everything printed.
// Flag variables are reset so that tests do not leak into each other.
func execute(t *testing.T, rt Runtime, stdin string, args ...string) (string, error) {
	t.Helper()

	if f, ok := rt.(*fakeRuntime); ok && f.settings == nil {
		f.settings = newSettings(t)
	}
	active = rt
	askLLM, chatLLM, chatPlain = "", "", false
	retrieveK, retrieveJSON = 0, false
	retrieveCmd.Flags().Lookup("top-k").Changed = false
	corpusDeleteYes, versionShort = false, false
	envFile = ".env"
	t.Cleanup(func() {
		active = nil
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}
