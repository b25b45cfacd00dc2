package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Tokenizer estimates a token count for text, used only to enforce the
// secondary MaxTokens ceiling on top of the primary char-based cascade.
// textsplitter.SimpleTokenizer and textsplitter.TikTokenTokenizer both
// satisfy this via their Encode method.
type Tokenizer interface {
	Encode(text string) []string
}

// separators is the cascade of split points tried in order, from the
// coarsest structural boundary down to a single code point. The empty
// string is reached only as a last resort.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}

// Unit is one piece of text produced by the recursive splitter, tagged
// with whether it was carved out on a paragraph/line boundary.
type Unit struct {
	Content    string
	HasContext bool
}

var sentenceTokenizer *sentences.DefaultSentenceTokenizer

func init() {
	t, err := english.NewSentenceTokenizer(nil)
	if err == nil {
		sentenceTokenizer = t
	}
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// splitWithSeparators is the entry point: text already within MaxChars is
// returned whole with HasContext false, since nothing was structurally
// preserved, it was simply small enough to begin with.
func splitWithSeparators(text string, opts Options) []Unit {
	if charLen(text) <= opts.MaxChars {
		return []Unit{{Content: text, HasContext: false}}
	}
	units := splitAtSeparator(text, opts, 0)
	return enforceTokenCeiling(units, opts)
}

func splitAtSeparator(text string, opts Options, sepIdx int) []Unit {
	if sepIdx >= len(separators) {
		sepIdx = len(separators) - 1
	}
	sep := separators[sepIdx]

	var pieces []string
	switch {
	case sep == "":
		pieces = splitIntoRunes(text)
	case sep == ". " || sep == "! " || sep == "? ":
		if sentPieces, ok := trySentenceSplit(text, sep); ok {
			pieces = sentPieces
			sep = "" // sentences already carry their own trailing punctuation/space
		} else {
			pieces = strings.Split(text, sep)
		}
	default:
		pieces = strings.Split(text, sep)
	}

	if sep != "" && len(pieces) <= 1 {
		if sepIdx+1 < len(separators) {
			return splitAtSeparator(text, opts, sepIdx+1)
		}
		pieces = splitIntoRunes(text)
		sep = ""
	}

	packed := packPieces(pieces, sep, opts)
	hasContext := separators[sepIdxOrLast(sepIdx)] == "\n\n" || separators[sepIdxOrLast(sepIdx)] == "\n"

	threshold := int(float64(opts.MaxChars) * 1.5)
	var out []Unit
	for _, p := range packed {
		if charLen(p) > threshold && sepIdx+1 < len(separators) {
			out = append(out, splitAtSeparator(p, opts, sepIdx+1)...)
			continue
		}
		out = append(out, Unit{Content: p, HasContext: hasContext})
	}
	return out
}

func sepIdxOrLast(i int) int {
	if i >= len(separators) {
		return len(separators) - 1
	}
	return i
}

func splitIntoRunes(text string) []string {
	r := []rune(text)
	pieces := make([]string, len(r))
	for i, c := range r {
		pieces[i] = string(c)
	}
	return pieces
}

// trySentenceSplit segments text into sentences via the Punkt-trained
// tokenizer, falling back to the naive separator split whenever the
// tokenizer is unavailable or degenerates to a single sentence.
func trySentenceSplit(text string, sep string) ([]string, bool) {
	if sentenceTokenizer == nil {
		return nil, false
	}
	sents := sentenceTokenizer.Tokenize(text)
	if len(sents) <= 1 {
		return nil, false
	}
	pieces := make([]string, 0, len(sents))
	for _, s := range sents {
		pieces = append(pieces, s.Text)
	}
	return pieces, true
}

// packPieces greedily packs pieces into buffers joined by sep, flushing
// whenever the next piece would push the buffer past MaxChars, and seeds
// each new buffer with the last OverlapChars runes of the flushed text.
func packPieces(pieces []string, sep string, opts Options) []string {
	var chunks []string
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		flushed := strings.Join(buf, sep)
		chunks = append(chunks, flushed)
		overlap := lastRunes(flushed, opts.OverlapChars)
		buf = nil
		if overlap != "" {
			buf = append(buf, overlap)
		}
	}

	for _, piece := range pieces {
		if len(buf) > 0 {
			candidate := strings.Join(append(append([]string{}, buf...), piece), sep)
			if charLen(candidate) > opts.MaxChars {
				flush()
			}
		}
		buf = append(buf, piece)
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, sep))
	}
	return chunks
}

// enforceTokenCeiling is a secondary bound on top of the char-based
// cascade: when a configured Tokenizer reports a unit over MaxTokens, the
// unit is re-split at a halved character budget until it fits or bottoms
// out at the rune level.
func enforceTokenCeiling(units []Unit, opts Options) []Unit {
	if opts.Tokenizer == nil || opts.MaxTokens <= 0 {
		return units
	}
	var out []Unit
	for _, u := range units {
		if len(opts.Tokenizer.Encode(u.Content)) <= opts.MaxTokens {
			out = append(out, u)
			continue
		}
		reduced := opts
		reduced.MaxChars = opts.MaxChars / 2
		if reduced.MaxChars < 1 {
			reduced.MaxChars = 1
		}
		sub := splitAtSeparator(u.Content, reduced, len(separators)-1)
		for i := range sub {
			sub[i].HasContext = u.HasContext
		}
		out = append(out, enforceTokenCeiling(sub, reduced)...)
	}
	return out
}
