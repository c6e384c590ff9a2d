package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func onePage(text string) *domain.Document {
	return &domain.Document{
		Path:  "/docs/a.pdf",
		Pages: []domain.Page{{Index: 0, Text: text}},
	}
}

func texts(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].Text
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		assert.Equal(t, 1000, p.ChunkSize())
		assert.Equal(t, 150, p.Overlap())
		assert.Equal(t, "chunker", p.Name())
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(100))
		require.NoError(t, err)
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 100, p.Overlap())
	})

	invalid := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -10, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}

	t.Run("no separators", func(t *testing.T) {
		_, err := New(WithSeparators())
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestSplit_EmptyDocument(t *testing.T) {
	chunks, err := Split(&domain.Document{}, 1000, 150)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split(onePage(""), 1000, 150)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split(nil, 1000, 150)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_WhitespaceOnlyPage(t *testing.T) {
	chunks, err := Split(onePage(" \n\n \t \n"), 1000, 150)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	_, err := Split(onePage("text"), 10, 10)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	text := "A capital do Brasil é Brasília."
	chunks, err := Split(onePage(text), 1000, 150)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, text, c.Text)
	assert.Equal(t, 0, c.SourcePage)
	assert.Equal(t, 0, c.Position)
	assert.Equal(t, 0, c.Start)
	assert.Equal(t, utf8.RuneCountInString(text), c.Size)
	assert.Equal(t, 0, c.OverlapWithPrevious)
	assert.Equal(t, "/docs/a.pdf", c.Metadata["source"])
	assert.Equal(t, 0, c.Metadata["page"])
	assert.NotEmpty(t, c.ID)
}

func TestSplit_WordBoundariesWithOverlap(t *testing.T) {
	chunks, err := Split(onePage("aa bb cc dd ee"), 8, 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"aa bb cc", " cc dd", " dd ee"}, texts(chunks))
	assert.Equal(t, 0, chunks[0].OverlapWithPrevious)
	assert.Equal(t, 3, chunks[1].OverlapWithPrevious)
	assert.Equal(t, 3, chunks[2].OverlapWithPrevious)
	assert.Equal(t, 5, chunks[1].Start)
	assert.Equal(t, 11, chunks[1].End())
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	chunks, err := Split(onePage("para one.\n\npara two."), 12, 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"para one.", "\n\npara two."}, texts(chunks))
}

func TestSplit_FallsBackToCharacters(t *testing.T) {
	chunks, err := Split(onePage("abcdefghij"), 4, 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, texts(chunks))
	for _, c := range chunks[1:] {
		assert.Equal(t, 1, c.OverlapWithPrevious)
	}
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("ç", 10)
	chunks, err := Split(onePage(text), 5, 0)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.Equal(t, 5, c.Size)
		assert.Equal(t, 5, utf8.RuneCountInString(c.Text))
	}
}

func TestSplit_DoesNotSpanPages(t *testing.T) {
	doc := &domain.Document{
		Path: "/docs/b.pdf",
		Pages: []domain.Page{
			{Index: 0, Text: "Página um."},
			{Index: 1, Text: ""},
			{Index: 2, Text: "Página três."},
		},
	}

	chunks, err := Split(doc, 1000, 150)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Página um.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].SourcePage)
	assert.Equal(t, "Página três.", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].SourcePage)
	assert.Equal(t, 1, chunks[1].Position)
	assert.Equal(t, 0, chunks[1].OverlapWithPrevious)
}

func TestSplit_IsDeterministic(t *testing.T) {
	doc := onePage(strings.Repeat("lorem ipsum dolor sit amet ", 80))

	first, err := Split(doc, 100, 20)
	require.NoError(t, err)
	second, err := Split(doc, 100, 20)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProcessor_RespectsContextCancellation(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Split(ctx, onePage("text"))
	assert.ErrorIs(t, err, context.Canceled)
}

// prose builds a page of single-spaced words, long enough to need many chunks.
func prose(words int) string {
	vocab := []string{"o", "documento", "descreve", "a", "capital", "do", "Brasil", "e", "suas", "regiões"}
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(vocab[i%len(vocab)])
	}
	return b.String()
}

func TestSplit_Invariants(t *testing.T) {
	page := prose(600)
	runes := []rune(page)

	configs := []struct{ size, overlap int }{
		{1000, 150},
		{200, 50},
		{64, 16},
		{30, 0},
		{12, 11},
	}

	for _, cfg := range configs {
		chunks, err := Split(onePage(page), cfg.size, cfg.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		var rebuilt strings.Builder
		for i, c := range chunks {
			assert.LessOrEqual(t, c.Size, cfg.size, "chunk %d exceeds size", i)
			assert.LessOrEqual(t, c.OverlapWithPrevious, cfg.overlap, "chunk %d overlap", i)
			assert.Equal(t, string(runes[c.Start:c.End()]), c.Text, "chunk %d is not a page substring", i)
			assert.Equal(t, i, c.Position)
			if i > 0 {
				prev := chunks[i-1]
				assert.Greater(t, c.Start, prev.Start)
				assert.Equal(t, prev.End()-c.Start, c.OverlapWithPrevious)
				assert.LessOrEqual(t, c.OverlapWithPrevious, prev.Size)
			}
			rebuilt.WriteString(string([]rune(c.Text)[c.OverlapWithPrevious:]))
		}

		assert.Equal(t, page, rebuilt.String(), "size=%d overlap=%d", cfg.size, cfg.overlap)
	}
}

// squeeze drops every whitespace rune from s.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSplit_DropsWhitespaceOnlySpans(t *testing.T) {
	page := "aaaa\n\n          \n\n          \n\nbbbb"

	chunks, err := Split(onePage(page), 6, 0)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 4, chunks[0].End())
	assert.Equal(t, "\n\nbbbb", chunks[1].Text)
	assert.Equal(t, 28, chunks[1].Start)
	assert.Equal(t, 34, chunks[1].End())
	assert.Zero(t, chunks[1].OverlapWithPrevious)
	assert.Equal(t, 1, chunks[1].Position)
}

func TestSplit_MixedSeparatorsReconstructModuloWhitespace(t *testing.T) {
	page := "Capítulo um\n\n" + prose(40) + "\n" + prose(25) + "\n\n   \n\n" +
		"Capítulo dois\n" + prose(60) + "\n\n\n\n" + prose(15)
	runes := []rune(page)

	configs := []struct{ size, overlap int }{
		{200, 40},
		{64, 16},
		{20, 0},
		{8, 3},
	}

	for _, cfg := range configs {
		chunks, err := Split(onePage(page), cfg.size, cfg.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		var rebuilt strings.Builder
		for i, c := range chunks {
			assert.LessOrEqual(t, c.Size, cfg.size, "chunk %d exceeds size", i)
			assert.NotEmpty(t, strings.TrimSpace(c.Text), "chunk %d is whitespace only", i)
			assert.Equal(t, string(runes[c.Start:c.End()]), c.Text, "chunk %d is not a page substring", i)
			if i > 0 {
				prev := chunks[i-1]
				if c.Start > prev.End() {
					gap := string(runes[prev.End():c.Start])
					assert.Empty(t, strings.TrimSpace(gap), "chunk %d skips text", i)
				}
			}
			rebuilt.WriteString(string([]rune(c.Text)[c.OverlapWithPrevious:]))
		}

		assert.Equal(t, squeeze(page), squeeze(rebuilt.String()), "size=%d overlap=%d", cfg.size, cfg.overlap)
	}
}
