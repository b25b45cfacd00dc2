// Package dispatch is the ToolDispatch: validates structured tool-invocation
// requests against their declared schemas and routes them to engine
// operations, shaping responses and never propagating a panic or an
// unstructured error back to the caller.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/localkb/engine/enginerr"
	"github.com/localkb/engine/registry"
	"github.com/localkb/engine/search"
)

// Dispatcher routes the four declared tools to the Registry and the
// SearchEngine.
type Dispatcher struct {
	Registry   *registry.Registry
	Search     *search.Engine
	DataRoot   string
	ManagerURL string

	validate *validator.Validate
}

func NewDispatcher(reg *registry.Registry, eng *search.Engine, dataRoot, managerURL string) *Dispatcher {
	return &Dispatcher{
		Registry:   reg,
		Search:     eng,
		DataRoot:   dataRoot,
		ManagerURL: managerURL,
		validate:   validator.New(),
	}
}

// Dispatch validates rawArgs against toolName's declared schema, routes to
// the matching engine operation, and returns its shaped response.
// A panic in the routed operation is recovered and returned as an internal
// error.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, rawArgs json.RawMessage) (out json.RawMessage, derr *DispatchError) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			derr = newError(CodeInternalError, fmt.Sprintf("panic in %s: %v", toolName, r))
		}
	}()
	switch toolName {
	case ToolListKnowledgebases:
		return d.listKnowledgebases(ctx)
	case ToolSearchKnowledgebases:
		return d.searchKnowledgebases(ctx, rawArgs)
	case ToolGetKnowledgebaseStats:
		return d.getKnowledgebaseStats(ctx, rawArgs)
	case ToolOpenKnowledgebaseManager:
		return d.openKnowledgebaseManager()
	default:
		return nil, newError(CodeToolNotFound, fmt.Sprintf("unknown tool %q", toolName))
	}
}

func (d *Dispatcher) decodeAndValidate(rawArgs json.RawMessage, dst any) *DispatchError {
	if len(rawArgs) == 0 {
		rawArgs = []byte("{}")
	}
	if err := json.Unmarshal(rawArgs, dst); err != nil {
		return newError(CodeInvalidParameters, fmt.Sprintf("malformed arguments: %v", err))
	}
	if err := d.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return newError(CodeInvalidParameters, fmt.Sprintf("field %q failed %q validation", f.Field(), f.Tag()))
		}
		return newError(CodeInvalidParameters, err.Error())
	}
	return nil
}

func marshal(v any) (json.RawMessage, *DispatchError) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, newError(CodeInternalError, err.Error())
	}
	return b, nil
}

func (d *Dispatcher) listKnowledgebases(ctx context.Context) (json.RawMessage, *DispatchError) {
	metas, err := d.Registry.List(ctx)
	if err != nil {
		return nil, newError(CodeInternalError, err.Error())
	}
	type kb struct {
		Name          string `json:"name"`
		ChunkCount    int    `json:"chunk_count"`
		FileCount     int    `json:"file_count"`
		LastIngestion string `json:"last_ingestion"`
		Path          string `json:"path"`
	}
	out := struct {
		Knowledgebases []kb `json:"knowledgebases"`
	}{}
	for _, m := range metas {
		out.Knowledgebases = append(out.Knowledgebases, kb{
			Name:          m.Name,
			ChunkCount:    m.ChunkCount,
			FileCount:     m.FileCount,
			LastIngestion: m.LastIngestion,
			Path:          filepath.Join(d.DataRoot, m.Name),
		})
	}
	return marshal(out)
}

func (d *Dispatcher) searchKnowledgebases(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, *DispatchError) {
	var args SearchKnowledgebasesArgs
	if derr := d.decodeAndValidate(rawArgs, &args); derr != nil {
		return nil, derr
	}
	resp, err := d.Search.Search(ctx, search.Request{
		Query:      args.Query,
		KBFilter:   args.KnowledgebaseName,
		TypeFilter: args.DocumentType,
		MaxResults: args.MaxResults,
	})
	if err != nil {
		if errors.Is(err, enginerr.ErrInvalidInput) {
			return nil, newError(CodeInvalidParameters, err.Error())
		}
		return nil, newError(CodeInternalError, err.Error())
	}
	return marshal(resp)
}

func (d *Dispatcher) getKnowledgebaseStats(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, *DispatchError) {
	var args GetKnowledgebaseStatsArgs
	if derr := d.decodeAndValidate(rawArgs, &args); derr != nil {
		return nil, derr
	}
	stats, err := d.Registry.Stats(ctx, args.Name)
	if err != nil {
		if errors.Is(err, enginerr.ErrNotFound) {
			return nil, newError(CodeNotFound, err.Error())
		}
		return nil, newError(CodeInternalError, err.Error())
	}
	return marshal(stats)
}

func (d *Dispatcher) openKnowledgebaseManager() (json.RawMessage, *DispatchError) {
	out := struct {
		URL     string `json:"url"`
		Message string `json:"message"`
	}{URL: d.ManagerURL, Message: "knowledgebase manager is available at the given URL"}
	return marshal(out)
}
