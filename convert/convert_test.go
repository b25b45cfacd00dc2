package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTextConverterShortCircuit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	c := newTextConverter()
	res, err := c.Convert(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "hello world", res.Markdown)
	require.Equal(t, "markdown", res.Metadata.Format)
	require.Equal(t, 2, res.Metadata.WordCount)
}

func TestFacadeUnsupportedExtension(t *testing.T) {
	f, err := NewFacade("http://localhost:0", time.Second)
	require.NoError(t, err)
	_, err = f.Convert(context.Background(), "file.xyz")
	require.Error(t, err)
	var uerr *UnsupportedExtensionError
	require.ErrorAs(t, err, &uerr)
}

func TestExternalConverterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(convertResponse{
			Markdown:  "# converted",
			Title:     "doc",
			WordCount: 2,
		})
	}))
	defer srv.Close()

	f, err := NewFacade(srv.URL, 5*time.Second)
	require.NoError(t, err)

	res, err := f.Convert(context.Background(), "report.pdf")
	require.NoError(t, err)
	require.Equal(t, "# converted", res.Markdown)
	require.Equal(t, "pdf", res.Metadata.Format)
}

func TestExternalConverterTimeoutDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("raw bytes as degraded text"), 0o644))

	f, err := NewFacade(srv.URL, 5*time.Millisecond)
	require.NoError(t, err)

	res, err := f.Convert(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, res.Markdown, "raw bytes")
}
