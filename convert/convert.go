// Package convert is the ConverterFacade: the boundary between raw files on
// disk and the markdown text the chunker understands. Plain-text formats
// are read directly; everything else is handed to an external conversion
// service over HTTP.
package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/localkb/engine/chunk"
)

// Metadata describes a converted document, independent of its content.
type Metadata struct {
	Title        string
	Format       string
	WordCount    int
	HasImages    bool
	HasTables    bool
	PageCount    *int
	ConversionMs int64
}

// Result is the outcome of converting one file.
type Result struct {
	Markdown   string
	Metadata   Metadata
	Structured *StructuredDocument
}

// Element is one structural unit of a structured document: a table, list,
// code block, heading, or paragraph, in document order.
type Element struct {
	Kind    chunk.Kind
	Content string
}

// StructuredDocument is the opaque object an external converter may return
// alongside its markdown rendering, consumed only by the chunker's
// alternate structured path.
type StructuredDocument struct {
	Markdown string
	Elements []Element
}

// FallbackMarkdown is what the chunker falls back to when the structured
// path can't be used.
func (d *StructuredDocument) FallbackMarkdown() string {
	if d == nil {
		return ""
	}
	return d.Markdown
}

// Converter is the ConverterFacade contract: convert one file into
// markdown plus metadata, optionally with a structured document.
type Converter interface {
	Convert(ctx context.Context, path string) (*Result, error)
}

// UnsupportedExtensionError is returned for extensions no configured
// Converter recognizes.
type UnsupportedExtensionError struct {
	Extension string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("unsupported file extension %q", e.Extension)
}

// wordCount is a whitespace-split token count for plain text formats.
func wordCount(content string) int {
	return len(strings.Fields(content))
}
