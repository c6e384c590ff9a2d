package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docqa", "prompts"), store.Dir())
}

func TestNewPromptStore_NoIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(domain.TemplateGuarded)
	require.NoError(t, err)

	for _, f := range []string{"guarded.txt", "strict.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_BuiltinTemplates(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{domain.TemplateGuarded, domain.TemplateStrict} {
		prompt, err := store.Load(name)
		require.NoError(t, err)
		assert.Equal(t, defaultPrompts[name], prompt)
		assert.Contains(t, prompt, driven.PlaceholderContext)
		assert.Contains(t, prompt, driven.PlaceholderQuestion)
		assert.Contains(t, prompt, domain.RefusalSentence)
	}

	guarded, _ := store.Load(domain.TemplateGuarded)
	assert.Contains(t, guarded, "EXEMPLOS DE PERGUNTAS FORA DO CONTEXTO")
	strict, _ := store.Load(domain.TemplateStrict)
	assert.Contains(t, strict, "REGRAS IMPORTANTES")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "C: {context}\nQ: {question}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strict.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(domain.TemplateStrict)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_CustomName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.txt"), []byte("{context}|{question}"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load("short")

	require.NoError(t, err)
	assert.Equal(t, "{context}|{question}", prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(domain.TemplateGuarded)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "guarded.txt")))
	store.Reload()

	prompt, err := store.Load(domain.TemplateGuarded)

	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[domain.TemplateGuarded], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")

	assert.Error(t, err)
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(domain.TemplateStrict)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[domain.TemplateStrict], prompt)

	_, err = store.Load("custom")
	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(domain.TemplateStrict)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "strict.txt"), []byte("edited {context} {question}"), 0600))

	cached, err := store.Load(domain.TemplateStrict)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[domain.TemplateStrict], cached)

	store.Reload()
	fresh, err := store.Load(domain.TemplateStrict)
	require.NoError(t, err)
	assert.Equal(t, "edited {context} {question}", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guarded.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine {context} {question}"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(domain.TemplateStrict)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine {context} {question}", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := domain.TemplateGuarded
			if i%2 == 0 {
				name = domain.TemplateStrict
			}
			prompt, err := store.Load(name)
			assert.NoError(t, err)
			assert.Equal(t, defaultPrompts[name], prompt)
			if i%5 == 0 {
				store.Reload()
			}
		}(i)
	}
	wg.Wait()
}
