// Package embedding loads and caches a fixed text-to-vector model for the
// process lifetime and exposes single and batch embedding operations.
//
// The model itself is reached over HTTP through a github.com/localkb/engine/llm
// client (Ollama or an OpenAI-compatible local server), used here only for
// its Embeddings method.
package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localkb/engine/llm/iface"
	"github.com/localkb/engine/llm/models"
	"golang.org/x/sync/singleflight"
)

// slowOpThreshold is the wall-clock duration above which an embedding
// operation is logged at warning level.
const slowOpThreshold = 500 * time.Millisecond

// Embedder embeds text into fixed-dimensional vectors. embed_one fails on
// bad input; embed_many never fails as a whole — it returns one result per
// input, nil where embedding that input failed.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([]*Vector, error)
	// Dimension returns the model's output dimension, valid only after the
	// first successful embed. Returns 0 before then.
	Dimension() int
}

// Vector wraps a single embed_many result slot so a nil pointer can mean
// "embedding failed for this input" without an extra bool.
type Vector struct {
	Values []float32
}

// Manager is the process-wide Embedder: it lazily initializes its backing
// model on first use and reuses it for every subsequent call. Concurrent
// initializers race through a singleflight.Group so exactly one of them
// does the work and the rest observe its result — whoever wins installs
// the instance, losers observe the winner. A sync.Once would wedge late
// callers behind a failed first attempt forever instead of letting the
// next call retry.
type Manager struct {
	newBackend func(ctx context.Context) (iface.LLM, error)
	modelName  string
	logger     *slog.Logger

	group singleflight.Group

	backend   iface.LLM
	dimension int
}

// NewManager constructs an Embedder. newBackend is invoked at most once
// (per successful result) to produce the underlying LLM client; modelName
// is passed through to every Embeddings call as the model identifier.
func NewManager(modelName string, newBackend func(ctx context.Context) (iface.LLM, error), logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		newBackend: newBackend,
		modelName:  modelName,
		logger:     logger,
	}
}

func (m *Manager) ensureBackend(ctx context.Context) (iface.LLM, error) {
	if m.backend != nil {
		return m.backend, nil
	}
	v, err, _ := m.group.Do("init", func() (any, error) {
		if m.backend != nil {
			return m.backend, nil
		}
		b, err := m.newBackend(ctx)
		if err != nil {
			return nil, err
		}
		m.backend = b
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(iface.LLM), nil
}

func (m *Manager) Dimension() int {
	return m.dimension
}

// EmbedOne embeds a single piece of text. It fails if text is empty or the
// backing model reports an error.
func (m *Manager) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("embedding: empty text")
	}
	backend, err := m.ensureBackend(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := backend.Embeddings(ctx, &models.EmbeddingsRequest{
		Model:   m.modelName,
		Content: text,
	})
	m.logSlow(start, 1)
	if err != nil {
		return nil, err
	}
	if m.dimension == 0 {
		m.dimension = len(resp.Embeddings)
	}
	return resp.Embeddings, nil
}

// EmbedMany embeds every input independently and returns a result aligned
// one-to-one with texts. A failure on one input never aborts the batch —
// its slot is nil and every other slot is still populated. This is the
// central enabler of the ingestion pipeline's batch resilience: callers
// must skip nil slots rather than treat one as a reason to discard the
// whole result.
func (m *Manager) EmbedMany(ctx context.Context, texts []string) ([]*Vector, error) {
	backend, err := m.ensureBackend(ctx)
	if err != nil {
		// Model-unreachable is the one failure mode that legitimately
		// fails the whole batch: nothing downstream can recover without
		// a model at all.
		return nil, err
	}

	start := time.Now()
	out := make([]*Vector, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		resp, err := backend.Embeddings(ctx, &models.EmbeddingsRequest{
			Model:   m.modelName,
			Content: text,
		})
		if err != nil {
			m.logger.Warn("embedding: input failed, dropping", "index", i, "error", err)
			continue
		}
		if m.dimension == 0 {
			m.dimension = len(resp.Embeddings)
		}
		out[i] = &Vector{Values: resp.Embeddings}
	}
	m.logSlow(start, len(texts))
	return out, nil
}

func (m *Manager) logSlow(start time.Time, inputSize int) {
	if d := time.Since(start); d > slowOpThreshold {
		m.logger.Warn("embedding: slow operation", "duration", d, "input_size", inputSize)
	}
}
