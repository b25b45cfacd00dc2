package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localkb/engine/chunk"
)

func defaultOpts() Options {
	return Options{MaxChars: 2000, OverlapChars: 400}
}

// every emitted chunk has non-empty content, a recognized chunk_kind, a
// non-negative token_count, and an ordinal equal to its position.
func TestChunkValidity(t *testing.T) {
	text := "# Title\n\nSome intro paragraph.\n\n## Section One\n\n" + strings.Repeat("word ", 600)
	chunks := Chunk(text, defaultOpts())
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		require.NotEmpty(t, strings.TrimSpace(c.Content))
		require.True(t, c.ChunkKind.Valid())
		require.GreaterOrEqual(t, c.TokenCount, 0)
		require.Equal(t, i, c.Ordinal)
	}
}

// every chunk derived from the section under a heading has that heading in
// its heading_path.
func TestHeadingPreservation(t *testing.T) {
	text := "# Introduction\n\n" + strings.Repeat("lorem ipsum dolor sit amet. ", 200)
	chunks := Chunk(text, defaultOpts())
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.Contains(t, c.HeadingPath, "Introduction")
	}
}

// every emitted chunk's content length stays within a bounded multiple of
// max_chars.
func TestChunkSizeBound(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 500)
	opts := defaultOpts()
	chunks := Chunk(text, opts)
	require.NotEmpty(t, chunks)
	threshold := int(float64(opts.MaxChars) * 1.5)
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c.Content)), threshold)
	}
}

// recursive fallback on a separator-free document.
func TestRecursiveFallbackNoSeparators(t *testing.T) {
	text := strings.Repeat("A", 6000)
	opts := Options{MaxChars: 2000, OverlapChars: 400}
	units := splitWithSeparators(text, opts)
	require.GreaterOrEqual(t, len(units), 3)
	for _, u := range units {
		require.LessOrEqual(t, len([]rune(u.Content)), 3000)
		require.False(t, u.HasContext)
	}

	chunks := Chunk(text, opts)
	for _, c := range chunks {
		require.Empty(t, c.HeadingPath)
	}
}

// an empty document produces no chunks.
func TestEmptyDocument(t *testing.T) {
	chunks := Chunk("", defaultOpts())
	require.Empty(t, chunks)

	chunks = Chunk("   \n\n  ", defaultOpts())
	require.Empty(t, chunks)
}

// overlap is actually taken between consecutive chunks from a
// paragraph-level split.
func TestOverlapContinuity(t *testing.T) {
	opts := Options{MaxChars: 500, OverlapChars: 100}
	paragraphs := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs, strings.Repeat("x", 80))
	}
	text := strings.Join(paragraphs, "\n\n")
	units := splitWithSeparators(text, opts)
	require.GreaterOrEqual(t, len(units), 2)
	for i := 0; i+1 < len(units); i++ {
		suffix := lastRunes(units[i].Content, opts.OverlapChars)
		require.True(t, strings.HasPrefix(units[i+1].Content, suffix) || strings.Contains(units[i+1].Content, suffix))
	}
}

func TestDetectHeadingsATXAndSetext(t *testing.T) {
	lines := strings.Split("# First\nbody\nSecond\n======\nmore", "\n")
	headings := detectHeadings(lines)
	require.Len(t, headings, 2)
	require.Equal(t, "First", headings[0].Text)
	require.Equal(t, 1, headings[0].Level)
	require.Equal(t, "Second", headings[1].Text)
	require.Equal(t, 1, headings[1].Level)
}

func TestDetectHeadingsNumberedSection(t *testing.T) {
	lines := []string{"1.2 Overview of the system", "body text"}
	headings := detectHeadings(lines)
	require.Len(t, headings, 1)
	require.Equal(t, 2, headings[0].Level)
	require.Equal(t, "Overview of the system", headings[0].Text)
}

func TestChunkKindDefaultsToParagraphWithoutHeadings(t *testing.T) {
	text := strings.Repeat("no headings here at all, just prose. ", 100)
	chunks := Chunk(text, defaultOpts())
	for _, c := range chunks {
		require.Equal(t, chunk.KindParagraph, c.ChunkKind)
	}
}
