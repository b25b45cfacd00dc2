package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// textConverter short-circuits plain-text formats by reading the file
// directly: markdown equals file contents, metadata is derived from the
// content itself.
type textConverter struct{}

func newTextConverter() *textConverter {
	return &textConverter{}
}

var textExtensions = map[string]string{
	".md":   "markdown",
	".txt":  "text",
	".html": "html",
	".htm":  "html",
}

func (c *textConverter) supports(ext string) bool {
	_, ok := textExtensions[strings.ToLower(ext)]
	return ok
}

func (c *textConverter) Convert(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	format := textExtensions[strings.ToLower(filepath.Ext(path))]

	return &Result{
		Markdown: content,
		Metadata: Metadata{
			Title:        filepath.Base(path),
			Format:       format,
			WordCount:    wordCount(content),
			HasImages:    false,
			HasTables:    strings.Contains(content, "|---") || strings.Contains(content, "<table"),
			ConversionMs: time.Since(start).Milliseconds(),
		},
	}, nil
}
