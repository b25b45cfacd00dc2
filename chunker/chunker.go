// Package chunker turns raw document text into ordered, overlapping
// Chunks. It is a pure function of (text, Options): no knowledgebase name,
// ingestion timestamp, or store handle ever enters this package, so the
// same input always produces the same output regardless of where it is
// called from.
package chunker

import (
	"strings"

	"github.com/localkb/engine/chunk"
)

// Options configures both stages of chunking: heading-aware sectioning
// and the recursive character-bound splitter.
type Options struct {
	MaxChars     int
	OverlapChars int
	MaxTokens    int
	Tokenizer    Tokenizer // optional; nil disables the MaxTokens ceiling
}

// Chunk splits text into an ordered slice of chunk.Chunk. Only Content,
// Ordinal, TokenCount, ChunkKind, and HeadingPath are populated; the
// caller (the ingestion pipeline) stamps ID, KBName, SourcePath,
// SourceKind, IsTest, and IngestionTS afterward.
func Chunk(text string, opts Options) []chunk.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	headings := detectHeadings(lines)

	var emitted []emission
	if len(headings) == 0 {
		for _, u := range splitWithSeparators(text, opts) {
			emitted = append(emitted, emission{content: u.Content, headingPath: nil, kind: chunk.KindParagraph})
		}
	} else {
		if headings[0].LineIdx > 0 {
			leading := strings.Join(lines[:headings[0].LineIdx], "\n")
			if strings.TrimSpace(leading) != "" {
				for _, u := range splitWithSeparators(leading, opts) {
					emitted = append(emitted, emission{content: u.Content, headingPath: nil, kind: chunk.KindParagraph})
				}
			}
		}
		for i, h := range headings {
			end := len(lines)
			if i+1 < len(headings) {
				end = headings[i+1].LineIdx
			}
			sectionText := strings.Join(lines[h.LineIdx:end], "\n")
			if strings.TrimSpace(sectionText) == "" {
				continue
			}
			if charLen(sectionText) <= opts.MaxChars {
				emitted = append(emitted, emission{content: sectionText, headingPath: []string{h.Text}, kind: chunk.KindSection})
				continue
			}
			for _, u := range splitWithSeparators(sectionText, opts) {
				emitted = append(emitted, emission{content: u.Content, headingPath: []string{h.Text}, kind: chunk.KindParagraph})
			}
		}
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

type emission struct {
	content     string
	headingPath []string
	kind        chunk.Kind
}
