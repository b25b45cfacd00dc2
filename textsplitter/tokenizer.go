package textsplitter

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// SimpleTokenizer tokenizes text by splitting on whitespace.
type SimpleTokenizer struct{}

func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{}
}

// Encode splits on whitespace. A long run with no spaces counts as a single
// token; callers needing an accurate ceiling should use TikTokenTokenizer.
func (t *SimpleTokenizer) Encode(text string) []string {
	return strings.Fields(text)
}

// TikTokenTokenizer tokenizes text using OpenAI's tiktoken.
type TikTokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

func NewTikTokenTokenizer(model string) (*TikTokenTokenizer, error) {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding for model %s: %w", model, err)
	}
	return &TikTokenTokenizer{encoding: tkm}, nil
}

// Encode returns one placeholder string per token ID; only the count is
// ever used, by the chunker's token-ceiling check.
func (t *TikTokenTokenizer) Encode(text string) []string {
	tokenIDs := t.encoding.Encode(text, nil, nil)
	tokens := make([]string, len(tokenIDs))
	for i, id := range tokenIDs {
		tokens[i] = fmt.Sprintf("%d", id)
	}
	return tokens
}
