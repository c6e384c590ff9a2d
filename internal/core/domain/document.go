package domain

import "strings"

// Document is the extracted text of one corpus file.
// Pages keep the order of the source file.
type Document struct {
	// Path is the filesystem location the document was loaded from.
	Path string

	// Pages holds the text of each page in source order.
	Pages []Page
}

// Page is the text of a single page of a document.
type Page struct {
	// Index is the 0-based page number within the source file.
	Index int

	// Text is the extracted page text.
	Text string
}

// IsEmpty reports whether the document carries no non-whitespace text.
func (d *Document) IsEmpty() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

// Chunk is a bounded substring of a page, produced by the chunker.
// Text is copied verbatim from the page so Start and Size locate it exactly.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Text is the chunk content.
	Text string

	// SourcePage is the index of the page this chunk was cut from.
	SourcePage int

	// Position is the ordinal position of the chunk within the document.
	Position int

	// Start is the rune offset of Text within the page text.
	Start int

	// Size is the rune length of Text.
	Size int

	// OverlapWithPrevious is how many leading runes are shared with the
	// previous chunk of the same page. Zero for the first chunk of a page.
	OverlapWithPrevious int

	// Metadata contains chunk-specific key-value pairs such as the source path.
	Metadata map[string]any
}

// End returns the rune offset one past the last rune of the chunk.
func (c Chunk) End() int {
	return c.Start + c.Size
}
