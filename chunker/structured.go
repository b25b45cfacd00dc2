package chunker

import (
	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/convert"
)

// ChunkStructured walks a structured document's elements (tables, lists,
// code blocks, headings, paragraphs) produced by a format-aware converter,
// emitting one chunk per element when it fits within MaxChars and
// recursively splitting oversized elements the same way the markdown path
// does. Any nil or empty document falls back to the plain markdown path.
func ChunkStructured(doc *convert.StructuredDocument, opts Options) []chunk.Chunk {
	if doc == nil || len(doc.Elements) == 0 {
		return Chunk(doc.FallbackMarkdown(), opts)
	}

	var emitted []emission
	var headingPath []string
	for _, el := range doc.Elements {
		if el.Kind == chunk.KindHeading {
			headingPath = []string{el.Content}
			emitted = append(emitted, emission{content: el.Content, headingPath: append([]string(nil), headingPath...), kind: chunk.KindHeading})
			continue
		}
		if el.Content == "" {
			continue
		}
		path := append([]string(nil), headingPath...)
		if charLen(el.Content) <= opts.MaxChars {
			emitted = append(emitted, emission{content: el.Content, headingPath: path, kind: el.Kind})
			continue
		}
		for _, u := range splitWithSeparators(el.Content, opts) {
			emitted = append(emitted, emission{content: u.Content, headingPath: path, kind: el.Kind})
		}
	}

	if len(emitted) == 0 {
		return Chunk(doc.FallbackMarkdown(), opts)
	}

	out := make([]chunk.Chunk, 0, len(emitted))
	for i, e := range emitted {
		out = append(out, chunk.Chunk{
			Content:     e.content,
			Ordinal:     i,
			TokenCount:  chunk.EstimateTokens(e.content),
			ChunkKind:   e.kind,
			HeadingPath: e.headingPath,
		})
	}
	return out
}
