// Package chunker provides a recursive, separator-aware text chunker.
//
// Text is cut at the coarsest separator that keeps pieces under the size
// limit (paragraph, then line, then word, then character). Small pieces
// are merged back into chunks of at most the configured size, and each
// chunk carries up to the configured overlap from the end of the previous
// one. Chunks are exact substrings of their page: the separator stays at
// the start of the piece that follows it, so pieces tile the page.
package chunker

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultSeparators are tried in order, coarsest first. The empty
// separator splits into single characters and must come last.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// chunkNamespace scopes the deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docqa/chunk"))

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// Processor splits documents into chunks.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithSeparators replaces the separator hierarchy. The size bound only
// holds for every chunk when the last separator is "".
func WithSeparators(separators ...string) Option {
	return func(p *Processor) {
		p.separators = separators
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrConfiguration if the size is not positive or the
// overlap is outside [0, size).
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	if len(p.separators) == 0 {
		return nil, fmt.Errorf("%w: at least one separator is required", domain.ErrConfiguration)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured maximum overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split cuts doc into chunks. Each page is split on its own, so no chunk
// spans a page boundary. Whitespace-only chunks are not emitted.
func (p *Processor) Split(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return []domain.Chunk{}, nil
	}

	s := newSplitter(p.chunkSize, p.overlap, p.separators)
	chunks := make([]domain.Chunk, 0)

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := []rune(page.Text)
		if len(text) == 0 {
			continue
		}

		prevEnd := -1
		for _, sp := range s.split(text, span{0, len(text)}, s.separators) {
			if isBlank(text[sp.start:sp.end]) {
				continue
			}

			overlap := 0
			if prevEnd > sp.start {
				overlap = prevEnd - sp.start
			}

			position := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:                  chunkID(doc.Path, position),
				Text:                string(text[sp.start:sp.end]),
				SourcePage:          page.Index,
				Position:            position,
				Start:               sp.start,
				Size:                sp.len(),
				OverlapWithPrevious: overlap,
				Metadata: map[string]any{
					"source": doc.Path,
					"page":   page.Index,
				},
			})
			prevEnd = sp.end
		}
	}

	return chunks, nil
}

// Split is the functional form of Processor.Split with the default separators.
func Split(doc *domain.Document, maxSize, overlap int) ([]domain.Chunk, error) {
	p, err := New(WithChunkSize(maxSize), WithOverlap(overlap))
	if err != nil {
		return nil, err
	}
	return p.Split(context.Background(), doc)
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrConfiguration, size, overlap)
	}
	return nil
}

func chunkID(path string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", path, position))).String()
}

func isBlank(text []rune) bool {
	for _, r := range text {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// span is a half-open rune range [start, end) of a page.
type span struct {
	start, end int
}

func (s span) len() int {
	return s.end - s.start
}

type splitter struct {
	size       int
	overlap    int
	separators [][]rune
}

func newSplitter(size, overlap int, separators []string) *splitter {
	seps := make([][]rune, len(separators))
	for i, sep := range separators {
		seps[i] = []rune(sep)
	}
	return &splitter{size: size, overlap: overlap, separators: seps}
}

// split returns spans of at most s.size runes covering within, in order.
func (s *splitter) split(text []rune, within span, separators [][]rune) []span {
	sep, finer := chooseSeparator(text, within, separators)
	pieces := splitOn(text, within, sep)

	var out, small []span
	for _, piece := range pieces {
		if piece.len() < s.size {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			out = append(out, s.merge(small)...)
			small = nil
		}
		if len(finer) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(text, piece, finer)...)
		}
	}
	if len(small) > 0 {
		out = append(out, s.merge(small)...)
	}
	return out
}

// merge joins consecutive pieces into spans of at most s.size runes.
// When a span is closed, leading pieces are dropped from the window until
// what remains fits in s.overlap and leaves room for the next piece.
func (s *splitter) merge(pieces []span) []span {
	var out, window []span
	total := 0

	for _, piece := range pieces {
		n := piece.len()
		if total+n > s.size && len(window) > 0 {
			out = append(out, span{window[0].start, window[len(window)-1].end})
			for total > s.overlap || (total+n > s.size && total > 0) {
				total -= window[0].len()
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}

	if len(window) > 0 {
		out = append(out, span{window[0].start, window[len(window)-1].end})
	}
	return out
}

// chooseSeparator picks the first separator present in within and the
// finer separators left to try on oversized pieces.
func chooseSeparator(text []rune, within span, separators [][]rune) ([]rune, [][]rune) {
	sep := separators[len(separators)-1]
	var finer [][]rune
	for i, candidate := range separators {
		if len(candidate) == 0 {
			sep = candidate
			break
		}
		if indexRunes(text, within, candidate) >= 0 {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}
	return sep, finer
}

// splitOn cuts within before each occurrence of sep. The empty separator
// cuts between every rune. Empty pieces are dropped.
func splitOn(text []rune, within span, sep []rune) []span {
	if len(sep) == 0 {
		pieces := make([]span, 0, within.len())
		for i := within.start; i < within.end; i++ {
			pieces = append(pieces, span{i, i + 1})
		}
		return pieces
	}

	var pieces []span
	cut := within.start
	from := within.start
	for {
		at := indexRunes(text, span{from, within.end}, sep)
		if at < 0 {
			break
		}
		if at > cut {
			pieces = append(pieces, span{cut, at})
		}
		cut = at
		from = at + len(sep)
	}
	if within.end > cut {
		pieces = append(pieces, span{cut, within.end})
	}
	return pieces
}

// indexRunes returns the offset of the first occurrence of sep inside within, or -1.
func indexRunes(text []rune, within span, sep []rune) int {
	for i := within.start; i+len(sep) <= within.end; i++ {
		match := true
		for j, r := range sep {
			if text[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
