package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	enghttp "github.com/localkb/engine/http"
)

var binaryExtensions = map[string]string{
	".pdf":  "pdf",
	".docx": "docx",
	".pptx": "pptx",
	".xlsx": "xlsx",
	".mp3":  "audio",
	".wav":  "audio",
	".m4a":  "audio",
}

type convertRequest struct {
	Path string `json:"path"`
}

type convertResponse struct {
	Markdown  string       `json:"markdown"`
	Title     string       `json:"title"`
	WordCount int          `json:"word_count"`
	HasImages bool         `json:"has_images"`
	HasTables bool         `json:"has_tables"`
	PageCount *int         `json:"page_count,omitempty"`
	Elements  []rawElement `json:"elements,omitempty"`
}

type rawElement struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// externalConverter calls a local conversion service over HTTP for binary
// document formats, bounding wall-clock with a timeout and attempting one
// degraded plain-text extraction pass on context.DeadlineExceeded.
type externalConverter struct {
	client  *enghttp.JsonClient
	timeout time.Duration
}

func newExternalConverter(client *enghttp.JsonClient, timeout time.Duration) *externalConverter {
	return &externalConverter{client: client, timeout: timeout}
}

func (c *externalConverter) supports(ext string) bool {
	_, ok := binaryExtensions[strings.ToLower(ext)]
	return ok
}

func (c *externalConverter) Convert(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp convertResponse
	err := c.client.Post(callCtx, "/convert", convertRequest{Path: path}, &resp, nil)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			degraded, degradeErr := c.degradedExtract(path)
			if degradeErr == nil {
				degraded.Metadata.ConversionMs = time.Since(start).Milliseconds()
				return degraded, nil
			}
		}
		return nil, fmt.Errorf("external convert of %s: %w", path, err)
	}

	result := &Result{
		Markdown: resp.Markdown,
		Metadata: Metadata{
			Title:        resp.Title,
			Format:       binaryExtensions[strings.ToLower(filepath.Ext(path))],
			WordCount:    resp.WordCount,
			HasImages:    resp.HasImages,
			HasTables:    resp.HasTables,
			PageCount:    resp.PageCount,
			ConversionMs: time.Since(start).Milliseconds(),
		},
	}
	if len(resp.Elements) > 0 {
		result.Structured = &StructuredDocument{
			Markdown: resp.Markdown,
			Elements: decodeElements(resp.Elements),
		}
	}
	return result, nil
}

// degradedExtract is the one best-effort pass attempted when the external
// service times out: it cannot recover structure, only raw bytes-as-text.
func (c *externalConverter) degradedExtract(path string) (*Result, error) {
	tc := newTextConverter()
	res, err := tc.Convert(context.Background(), path)
	if err != nil {
		return nil, err
	}
	res.Metadata.Format = binaryExtensions[strings.ToLower(filepath.Ext(path))]
	return res, nil
}
