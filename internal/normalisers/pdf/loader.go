// Package pdf loads PDF files into page-ordered documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// PageExtractor returns the plain text of each page of a PDF, in page order.
type PageExtractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// Loader is a DocumentLoader for PDF files.
type Loader struct {
	extractor PageExtractor
}

// New creates a PDF loader backed by github.com/ledongthuc/pdf.
func New() *Loader {
	return &Loader{extractor: libExtractor{}}
}

// NewWithExtractor creates a loader with a custom page extractor (for testing).
func NewWithExtractor(e PageExtractor) *Loader {
	return &Loader{extractor: e}
}

// Load reads the PDF at path and returns one page per PDF page.
// Page indices start at 0.
func (l *Loader) Load(ctx context.Context, path string) (doc *domain.Document, err error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}

	// The PDF parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: unreadable PDF: %v", domain.ErrInvalidFormat, path, r)
		}
	}()

	pages, err := l.extractor.Extract(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidFormat, path, err)
	}

	doc = &domain.Document{
		Path:  path,
		Pages: make([]domain.Page, len(pages)),
	}
	for i, text := range pages {
		doc.Pages[i] = domain.Page{Index: i, Text: text}
	}

	logger.Debug("pdf: loaded %d pages from %s", len(pages), path)
	return doc, nil
}

// checkFile verifies path is a readable file with a .pdf extension and a PDF header.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrNotFound, path)
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s is not a .pdf file", domain.ErrInvalidFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrNotFound, path, err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, pdfMagic) {
		return fmt.Errorf("%w: %s does not have a PDF header", domain.ErrInvalidFormat, path)
	}
	return nil
}

// libExtractor extracts page text with github.com/ledongthuc/pdf.
type libExtractor struct{}

func (libExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer file.Close()

	count := reader.NumPage()
	pages := make([]string, 0, count)

	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf: failed to extract text from page %d of %s: %v", i, path, err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}
