package convert

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	enghttp "github.com/localkb/engine/http"

	"github.com/localkb/engine/chunk"
)

// Facade is the ConverterFacade: it dispatches to the text short-circuit
// for plain-text formats and the external HTTP converter for everything
// else, failing descriptively for extensions neither recognizes.
type Facade struct {
	text     *textConverter
	external *externalConverter
}

// NewFacade builds a Facade. baseURL is the external conversion service's
// address; timeout bounds each external call.
func NewFacade(baseURL string, timeout time.Duration) (*Facade, error) {
	client, err := enghttp.NewJsonClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &Facade{
		text:     newTextConverter(),
		external: newExternalConverter(client, timeout),
	}, nil
}

func (f *Facade) Convert(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case f.text.supports(ext):
		return f.text.Convert(ctx, path)
	case f.external.supports(ext):
		return f.external.Convert(ctx, path)
	default:
		return nil, &UnsupportedExtensionError{Extension: ext}
	}
}

func decodeElements(raw []rawElement) []Element {
	out := make([]Element, 0, len(raw))
	for _, r := range raw {
		out = append(out, Element{Kind: decodeKind(r.Kind), Content: r.Content})
	}
	return out
}

func decodeKind(s string) chunk.Kind {
	k := chunk.Kind(strings.ToLower(s))
	if k.Valid() {
		return k
	}
	return chunk.KindParagraph
}
