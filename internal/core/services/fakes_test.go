package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// fakeLoader returns doc or err for any path.
type fakeLoader struct {
	doc *domain.Document
	err error
}

func (f *fakeLoader) Load(_ context.Context, path string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc := *f.doc
	doc.Path = path
	return &doc, nil
}

// hashEmbedder is a deterministic bag-of-words embedder: each lowercase
// word adds one to a hashed bucket.
type hashEmbedder struct {
	mu         sync.Mutex
	dims       int
	calls      int
	batchCalls int
	err        error
	// mangle, when set, rewrites the batch output before it is returned.
	mangle func([][]float32) [][]float32
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dims: 64}
}

func (h *hashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		v[f.Sum32()%uint32(h.dims)]++
	}
	return v
}

func (h *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return h.vector(text), nil
}

func (h *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batchCalls++
	if h.err != nil {
		return nil, h.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	if h.mangle != nil {
		out = h.mangle(out)
	}
	return out, nil
}

func (h *hashEmbedder) Dimensions() int { return h.dims }
func (h *hashEmbedder) ModelName() string { return "hash-bow" }
func (h *hashEmbedder) Ping(context.Context) error { return nil }
func (h *hashEmbedder) Close() error { return nil }

// contextLLM answers only when a fact keyword of the question appears in
// the prompt's context block, otherwise it refuses. It reads the layout of
// the built-in guarded template.
type contextLLM struct {
	mu      sync.Mutex
	facts   map[string]string
	calls   int
	prompts []string
	opts    []driven.GenerateOptions
	err     error
}

func (c *contextLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompts = append(c.prompts, prompt)
	c.opts = append(c.opts, opts)
	if c.err != nil {
		return "", c.err
	}

	ctxBlock := between(prompt, "CONTEXTO:\n", "\n\nREGRAS:")
	question := between(prompt, "PERGUNTA DO USUÁRIO:\n", "\n")

	for keyword, answer := range c.facts {
		if strings.Contains(question, keyword) && strings.Contains(ctxBlock, keyword) {
			return answer, nil
		}
	}
	return domain.RefusalSentence, nil
}

func (c *contextLLM) ModelName() string { return "context-llm" }
func (c *contextLLM) Ping(context.Context) error { return nil }
func (c *contextLLM) Close() error { return nil }

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	if j := strings.Index(rest, end); j >= 0 {
		return rest[:j]
	}
	return rest
}

// stubRetriever returns a fixed context.
type stubRetriever struct {
	result domain.RetrievedContext
	err    error
	gotK   int
}

func (s *stubRetriever) Retrieve(_ context.Context, question string, k int) (domain.RetrievedContext, error) {
	s.gotK = k
	if s.err != nil {
		return domain.RetrievedContext{}, s.err
	}
	r := s.result
	r.Question = question
	r.K = k
	return r, nil
}

// mapPromptStore serves templates from a map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	if t, ok := m[name]; ok {
		return t, nil
	}
	return "", domain.ErrNotFound
}

func (m mapPromptStore) Reload() {}

// guardedTemplate mirrors the layout of the built-in guarded template.
const guardedTemplate = `
CONTEXTO:
{context}

REGRAS:
- Responda somente com base no CONTEXTO.

PERGUNTA DO USUÁRIO:
{question}

RESPONDA A "PERGUNTA DO USUÁRIO"
`

func testPipelineConfig() domain.PipelineConfig {
	return domain.PipelineConfig{
		EmbeddingModel: "hash-bow",
		LanguageModel:  "context-llm",
		CollectionID:   "pdf_documents",
		ChunkSize:      1000,
		ChunkOverlap:   150,
		TopK:           10,
	}
}
